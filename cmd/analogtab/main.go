// Command analogtab postprocesses analogue-method optimizer outputs:
// it folds per-station "best parameters" reports into one wide table and
// extracts per-station result series from the array files.
package main

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/alecthomas/kong"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	kongdotenv "github.com/titusjaka/kong-dotenv-go"
	_ "modernc.org/sqlite"

	"github.com/meteolab/analogtab/internal/batch"
	"github.com/meteolab/analogtab/internal/config"
	"github.com/meteolab/analogtab/internal/fetch"
	"github.com/meteolab/analogtab/internal/models"
	"github.com/meteolab/analogtab/internal/results"
	"github.com/meteolab/analogtab/internal/store"
)

type aggregateCmd struct {
	Config       string   `help:"YAML run sheet; flags override its values." type:"existingfile" optional:""`
	Root         string   `help:"Directory containing the optimizer report trees." type:"path" optional:""`
	PredictandDB string   `help:"Path to the predictand database file." type:"path" optional:""`
	Datasets     []string `help:"Dataset names to fold in."`
	Methods      []string `help:"Method names to fold in."`
	CSV          string   `help:"Write the wide table as CSV to this path." type:"path" optional:""`
	SQLite       string   `help:"Persist the wide table in this SQLite database." type:"path" optional:""`
	Verbose      bool     `short:"v" help:"Log progress per dataset/method pair."`
}

func (c *aggregateCmd) Run() error {
	run, err := config.LoadFile(c.Config)
	if err != nil {
		return err
	}
	if c.Root != "" {
		run.Root = c.Root
	}
	if c.PredictandDB != "" {
		run.PredictandDB = c.PredictandDB
	}
	if len(c.Datasets) > 0 {
		run.Datasets = c.Datasets
	}
	if len(c.Methods) > 0 {
		run.Methods = c.Methods
	}
	if c.CSV != "" {
		run.Output.CSV = c.CSV
	}
	if c.SQLite != "" {
		run.Output.SQLite = c.SQLite
	}
	if err := run.Validate(); err != nil {
		return err
	}

	var progress batch.Progress
	if c.Verbose {
		progress = func(dataset, method string, files int) {
			log.Printf("%s / %s: %d reports merged", dataset, method, files)
		}
	}

	tbl, err := batch.AggregateReports(run.Root, run.PredictandDB, run.Datasets, run.Methods, progress)
	if err != nil {
		return err
	}
	log.Printf("aggregated %d dynamic columns over %d stations", len(tbl.Columns()), len(tbl.Stations()))

	if run.Output.CSV != "" {
		f, err := os.Create(run.Output.CSV)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := tbl.WriteCSV(f); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
		log.Printf("wrote %s", run.Output.CSV)
	}

	if run.Output.SQLite != "" {
		db, err := sql.Open("sqlite", run.Output.SQLite)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()
		db.Exec("PRAGMA journal_mode=WAL")

		st := store.New(db)
		if err := st.Migrate(); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		if err := st.SaveTable(tbl); err != nil {
			return fmt.Errorf("save table: %w", err)
		}
		log.Printf("wrote %s", run.Output.SQLite)
	}
	return nil
}

type fetchCmd struct {
	Addr       string `help:"FTP server address (host:port)." env:"FTP_ADDR" required:""`
	User       string `help:"FTP user." env:"FTP_USER" default:"anonymous"`
	Pass       string `help:"FTP password." env:"FTP_PASS" default:"anonymous"`
	RemoteRoot string `help:"Remote directory holding the report trees." default:"/"`
	LocalRoot  string `help:"Local directory to mirror into." type:"path" required:""`
}

func (c *fetchCmd) Run() error {
	client := fetch.New(c.Addr, c.User, c.Pass)
	n, err := client.Mirror(c.RemoteRoot, c.LocalRoot)
	if err != nil {
		return err
	}
	log.Printf("mirrored %d report files into %s", n, c.LocalRoot)
	return nil
}

type showCmd struct {
	Dir     string `help:"Result directory for one station set." type:"existingdir" required:""`
	Station int    `help:"Station id." required:""`
	Period  string `help:"calibration or validation." default:"calibration"`
	Level   int    `help:"Analogy level (1-indexed)." default:"1"`
}

func (c *showCmd) Run() error {
	res, err := results.LoadAnalogResults(c.Dir, c.Station, models.Period(c.Period), c.Level)
	if err != nil {
		return err
	}
	fmt.Printf("station %d, %s, level %d: %d situations\n",
		res.StationID, res.Period, res.Level, len(res.Dates.TargetDates))
	for i, d := range res.Dates.TargetDatesCal {
		fmt.Printf("%s  target %8.3f (raw %8.3f)  score %8.4f  analogs %d\n",
			d.Format("2006-01-02"),
			res.Values.TargetValuesNorm[i],
			res.Values.TargetValuesRaw[i],
			res.Scores.Values[i],
			len(res.Dates.AnalogDates[i]))
	}
	return nil
}

type stationsCmd struct {
	PredictandDB string `arg:"" help:"Path to the predictand database file." type:"existingfile"`
}

func (c *stationsCmd) Run() error {
	stations, err := results.LoadStationTable(c.PredictandDB)
	if err != nil {
		return err
	}
	fmt.Printf("%6s %10s %10s %7s %8s\n", "id", "x", "y", "h", "p10")
	for _, s := range stations {
		fmt.Printf("%6d %10.0f %10.0f %7.0f %8.2f\n", s.ID, s.X, s.Y, s.Height, s.P10)
	}
	return nil
}

var cli struct {
	MetricsAddr string `help:"Expose prometheus metrics on this address (e.g. :9090)." optional:""`

	Aggregate aggregateCmd `cmd:"" help:"Fold parameter reports into the wide station table."`
	Fetch     fetchCmd     `cmd:"" help:"Mirror report files from the producer's FTP drop."`
	Show      showCmd      `cmd:"" help:"Print the analogue results for one station."`
	Stations  stationsCmd  `cmd:"" help:"Print the station table from the predictand database."`
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("analogtab"),
		kong.Description("Postprocess analogue-method optimizer outputs."),
		kong.Configuration(kongdotenv.ENVFileReader, ".env"),
		kong.UsageOnError(),
	)

	if cli.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(cli.MetricsAddr, mux); err != nil {
				log.Printf("metrics listener: %v", err)
			}
		}()
	}

	ctx.FatalIfErrorf(ctx.Run())
}
