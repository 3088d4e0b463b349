/*
Copyright © 2016 the cremviz authors.
This file is part of cremviz.

cremviz is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

cremviz is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with cremviz.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package cremutil holds the command-line interface of cremviz.
package cremutil

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"os"

	"github.com/ctessum/gobra"
	"github.com/lnashier/viper"
	"github.com/mit-jp/cremviz"
	"github.com/mit-jp/cremviz/gdx"
	"github.com/mit-jp/cremviz/viz"
	"github.com/sirupsen/logrus"
	"github.com/skratchdot/open-golang/open"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

// Log is the logger used by the commands. It is replaced according
// to the LogLevel option when a command starts.
var Log logrus.FieldLogger = logrus.StandardLogger()

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to cremviz.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "LogLevel",
			usage: `
              LogLevel is the minimum level of log messages that are printed.
              Valid options are "debug", "info", "warning", and "error".`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "GDXDir",
			usage: `
              GDXDir is the directory holding the C-REM output files. A GDX
              file can be replaced by a directory of the same name without
              the .gdx extension holding one CSV file per symbol.
              The path can include environment variables.`,
			defaultVal: "gdx",
			flagsets:   []*pflag.FlagSet{prepCmd.Flags(), modelCmd.Flags()},
		},
		{
			name: "Cases",
			usage: `
              Cases is the path to a TOML file listing the model cases, in the
              form [[Case]] Name="bau" File="result_urban_exo.gdx" Description="..."
              Args=["--case=default"]. The first case is the business-as-usual case.
              If Cases is empty, the eight cases presented on the website are used.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{prepCmd.Flags(), modelCmd.Flags()},
		},
		{
			name: "GDXDump",
			usage: `
              GDXDump is the path to the gdxdump program that is distributed
              with GAMS.`,
			defaultVal: gdx.DefaultGDXDump,
			flagsets:   []*pflag.FlagSet{prepCmd.Flags()},
		},
		{
			name: "PMWorkbook",
			usage: `
              PMWorkbook is the path to the spreadsheet holding population-weighted
              PM2.5 exposure by province and case. It can include environment variables,
              or be an http or https URL, in which case the file is downloaded.`,
			defaultVal: "pm.xlsx",
			flagsets:   []*pflag.FlagSet{prepCmd.Flags()},
		},
		{
			name: "MaxYear",
			usage: `
              MaxYear is the last model year that is written.`,
			defaultVal: cremviz.DefaultMaxYear,
			flagsets:   []*pflag.FlagSet{prepCmd.Flags()},
		},
		{
			name: "OutputDir",
			usage: `
              OutputDir is the directory that the prepared CSV files are written to.
              It can include environment variables.`,
			defaultVal: "data",
			flagsets:   []*pflag.FlagSet{prepCmd.Flags()},
		},
		{
			name: "DataDir",
			usage: `
              DataDir is the directory holding the CSV files written by the
              prep command. It can include environment variables.`,
			defaultVal: "data",
			flagsets:   []*pflag.FlagSet{renderCmd.Flags()},
		},
		{
			name: "Boundaries",
			usage: `
              Boundaries is the path to a shapefile of province outlines with a
              CODE attribute holding the two letter province code. If there is no
              .prj file, longitude and latitude are assumed. It can be an http or
              https URL, in which case the shapefile and its associated files are
              downloaded.`,
			defaultVal: "provinces.shp",
			flagsets:   []*pflag.FlagSet{renderCmd.Flags()},
		},
		{
			name: "Simplify",
			usage: `
              Simplify is the tolerance in meters that province outlines are
              simplified to. Outlines are not simplified if it is zero.`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{renderCmd.Flags()},
		},
		{
			name: "SiteDir",
			usage: `
              SiteDir is the directory that figure files are written to.
              It can include environment variables.`,
			defaultVal: "site/figures",
			flagsets:   []*pflag.FlagSet{renderCmd.Flags()},
		},
		{
			name: "Figures",
			usage: `
              Figures lists the figures to build. All figures are built if it is empty.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{renderCmd.Flags()},
		},
		{
			name: "PlotWidth",
			usage: `
              PlotWidth is the width of each plot in pixels.`,
			defaultVal: viz.DefaultWidth,
			flagsets:   []*pflag.FlagSet{renderCmd.Flags()},
		},
		{
			name: "StaticImages",
			usage: `
              StaticImages lists the formats, "png" or "svg", that each plot is
              also drawn in. No static images are drawn if it is empty.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{renderCmd.Flags()},
		},
		{
			name: "StaticDir",
			usage: `
              StaticDir is the directory that static images are written to.
              It can include environment variables.`,
			defaultVal: "site/static",
			flagsets:   []*pflag.FlagSet{renderCmd.Flags()},
		},
		{
			name: "GAMS",
			usage: `
              GAMS is the path to the gams program.`,
			defaultVal: "gams",
			flagsets:   []*pflag.FlagSet{modelCmd.Flags()},
		},
		{
			name: "CREM",
			usage: `
              CREM is the path to the main C-REM model file. If it is empty,
              the model is not run and only the post-processing is done.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{modelCmd.Flags()},
		},
		{
			name: "PreGMS",
			usage: `
              PreGMS is the path to the pre.gms post-processing script, which
              writes the _extra.gdx file for each case.`,
			defaultVal: "pre.gms",
			flagsets:   []*pflag.FlagSet{modelCmd.Flags()},
		},
		{
			name: "DryRun",
			usage: `
              DryRun prints the model commands instead of running them.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{modelCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("CREMVIZ")

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case []string:
				if option.shorthand == "" {
					set.StringSlice(option.name, option.defaultVal.([]string), option.usage)
				} else {
					set.StringSliceP(option.name, option.shorthand, option.defaultVal.([]string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(modelCmd)
	Root.AddCommand(prepCmd)
	Root.AddCommand(renderCmd)
}

// setConfig finds and reads in the configuration file, if there is one,
// and sets up logging.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(os.ExpandEnv(cfgpath))
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("cremviz: problem reading configuration file: %v", err)
		}
	}
	log, err := newLogger(os.Stderr, Cfg.GetString("LogLevel"))
	if err != nil {
		return err
	}
	Log = log
	return nil
}

// commandContext returns the context of cmd, which is not set when a
// command function is called directly.
func commandContext(cmd *cobra.Command) context.Context {
	if cmd != nil && cmd.Context() != nil {
		return cmd.Context()
	}
	return context.Background()
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "cremviz",
	Short: "Prepare and present C-REM results.",
	Long: `cremviz converts the output of the China Regional Energy Model (C-REM)
to CSV files and builds the charts and maps of the results website from them.
Use the subcommands specified below to access the functionality.

Refer to the subcommand documentation for configuration options and default settings.
Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'CREMVIZ_var' where 'var' is the
name of the variable to be set. Many configuration variables are additionally
allowed to contain environment variables within them.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of cremviz.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("cremviz v%s\n", cremviz.Version)
	},
	DisableAutoGenTag: true,
}

// modelCmd is a command that runs C-REM and the post-processing script.
var modelCmd = &cobra.Command{
	Use:   "model",
	Short: "Run the model.",
	Long: `model runs C-REM for each case if the CREM option is set, and then runs
the pre.gms post-processing script on the output of each case. GAMS must be
installed. Use --DryRun to print the commands instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cases, err := loadCases(Cfg.GetString("Cases"))
		if err != nil {
			return err
		}
		cmds, err := ModelCommands(cases,
			os.ExpandEnv(Cfg.GetString("GAMS")),
			os.ExpandEnv(Cfg.GetString("CREM")),
			os.ExpandEnv(Cfg.GetString("PreGMS")),
			os.ExpandEnv(Cfg.GetString("GDXDir")))
		if err != nil {
			return err
		}
		return RunModel(commandContext(cmd), cmds, Cfg.GetBool("DryRun"), cmd.OutOrStdout(), Log)
	},
	DisableAutoGenTag: true,
}

// prepCmd is a command that converts model output to CSV files.
var prepCmd = &cobra.Command{
	Use:   "prep",
	Short: "Prepare the website data.",
	Long: `prep reads the GDX files of each case and the PM2.5 exposure workbook,
computes the variables shown on the website, and writes them as CSV files:
one directory per province, holding one file per case, plus a national
directory with national totals.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cases, err := loadCases(Cfg.GetString("Cases"))
		if err != nil {
			return err
		}
		gdxDir, err := checkInputDir("GDXDir", Cfg.GetString("GDXDir"))
		if err != nil {
			return err
		}
		outDir, err := checkOutputDir("OutputDir", Cfg.GetString("OutputDir"))
		if err != nil {
			return err
		}
		maxYear, err := cast.ToIntE(Cfg.Get("MaxYear"))
		if err != nil {
			return fmt.Errorf("cremviz: reading MaxYear: %v", err)
		}
		ctx := commandContext(cmd)
		pm, err := maybeDownload(ctx, os.ExpandEnv(Cfg.GetString("PMWorkbook")), Log)
		if err != nil {
			return err
		}
		return Prep(ctx, cases, gdxDir,
			os.ExpandEnv(Cfg.GetString("GDXDump")),
			pm, maxYear, outDir, Log)
	},
	DisableAutoGenTag: true,
}

// renderCmd is a command that builds the figures.
var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Build the website figures.",
	Long: `render builds the charts and maps of the website from the files written
by the prep command and writes each figure as a JSON file. Available figures
are co2_by_scenario, air_pollution_1, air_pollution_2, health_impacts and
co2_by_province.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dataDir, err := checkInputDir("DataDir", Cfg.GetString("DataDir"))
		if err != nil {
			return err
		}
		siteDir, err := checkOutputDir("SiteDir", Cfg.GetString("SiteDir"))
		if err != nil {
			return err
		}
		formats, err := checkFormats(cast.ToStringSlice(Cfg.Get("StaticImages")))
		if err != nil {
			return err
		}
		staticDir := os.ExpandEnv(Cfg.GetString("StaticDir"))
		if len(formats) > 0 {
			if staticDir, err = checkOutputDir("StaticDir", staticDir); err != nil {
				return err
			}
		}
		width, err := cast.ToIntE(Cfg.Get("PlotWidth"))
		if err != nil {
			return fmt.Errorf("cremviz: reading PlotWidth: %v", err)
		}
		ctx := commandContext(cmd)
		boundaries, err := maybeDownload(ctx, os.ExpandEnv(Cfg.GetString("Boundaries")), Log)
		if err != nil {
			return err
		}
		return Render(ctx, dataDir, boundaries,
			Cfg.GetFloat64("Simplify"),
			siteDir, staticDir, formats, width,
			expandStringSlice(cast.ToStringSlice(Cfg.Get("Figures"))),
			Log)
	},
	DisableAutoGenTag: true,
}

// Prep converts the model output of cases in gdxDir and the PM2.5
// workbook to CSV files in outDir.
func Prep(ctx context.Context, cases []cremviz.Case, gdxDir, gdxdump, pmWorkbook string, maxYear int, outDir string, log logrus.FieldLogger) error {
	p, err := cremviz.NewPrep(ctx, cases, gdxDir, gdxdump, log)
	if err != nil {
		return err
	}
	p.PMWorkbook = pmWorkbook
	p.MaxYear = maxYear
	log.WithField("cases", len(cases)).Info("preparing data")
	if err := p.Run(ctx, cremviz.DefaultSteps()...); err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("cremviz: %v", err)
	}
	return p.Write(outDir)
}

// Render builds the named figures, or all figures if names is empty,
// from the prepared data in dataDir.
func Render(ctx context.Context, dataDir, boundaries string, simplify float64, siteDir, staticDir string, formats []string, width int, names []string, log logrus.FieldLogger) error {
	for _, n := range names {
		if _, ok := viz.Figures[n]; !ok {
			return fmt.Errorf("cremviz: unknown figure `%s`; valid figures are %v", n, viz.FigureNames())
		}
	}
	b, err := viz.LoadBoundaries(boundaries, simplify)
	if err != nil {
		return err
	}
	r := &viz.Renderer{
		Data:       viz.NewData(dataDir),
		Boundaries: b,
		Width:      width,
		Formats:    formats,
		Log:        log,
	}
	return r.Render(ctx, siteDir, staticDir, names...)
}

// configHandler reads the configuration file named by the config
// query parameter and responds with the resulting option values.
func configHandler(w http.ResponseWriter, r *http.Request) {
	if err := Root.PersistentFlags().Set("config", r.FormValue("config")); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := setConfig(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	config := make(map[string]interface{})
	for _, option := range options {
		config[option.name] = Cfg.Get(option.name)
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(config); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// guiTemplate wraps the command forms generated by gobra. Editing the
// config field loads the option values from that file.
const guiTemplate = `<!DOCTYPE html>
<html>
<head>
	<meta charset="utf-8">
	<title>cremviz</title>
	<style>
		body { max-width: 700px; margin: 2% auto; font-family: sans-serif; }
		div[id^="gobra-"] blockquote { font-size: 75%; color: #333; }
		div[id^="gobra-"] input { font-family: monospace; width: 50%; }
		.error { border: 1px solid #c35; }
	</style>
</head>
<body>
	<h1>cremviz</h1>
	<p>Prepare the C-REM results and build the website figures.</p>
	{{.}}
<script>
const fields = [...document.querySelectorAll('[data-name]')];
const config = fields.find(f => f.dataset.name == "config").children[0];
config.addEventListener("change", () => {
	fetch("/setConfig?config=" + encodeURIComponent(config.value)).then(res => {
		config.classList.toggle("error", !res.ok);
		if (!res.ok) return;
		res.json().then(data => {
			for (const f of fields)
				if (f.dataset.name in data && f.dataset.name != "config")
					f.children[0].value = JSON.stringify(data[f.dataset.name]).replace(/^"+|"+$/g, "");
		});
	});
});
</script>
</body>
</html>`

// StartWebServer starts a browser interface for the commands.
func StartWebServer() {
	setConfig() // Ignore any errors for now.
	http.HandleFunc("/setConfig", configHandler)

	for _, cmd := range []*cobra.Command{Root, versionCmd, modelCmd, prepCmd, renderCmd} {
		cmd.SilenceUsage = true // We don't want the usage messages in the GUI.
	}

	const address = "localhost:7171"
	server := gobra.Server{
		Root:          Root,
		ServerAddress: address,
		HTML:          template.Must(template.New("").Parse(guiTemplate)),
	}
	Log.WithField("address", "http://"+address).Info("server starting")
	open.Run("http://" + address)
	fmt.Println("If not opened automatically, please visit http://" + address)
	server.Start()
}
