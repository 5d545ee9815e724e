/*
Copyright © 2019 the InMAP authors.
This file is part of cfmeta.

cfmeta is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

cfmeta is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with cfmeta.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package cfmetautil contains the cfmeta command line interface.
package cfmetautil

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/lnashier/viper"
	"github.com/spatialmodel/cfmeta"
	"github.com/spatialmodel/cfmeta/catalog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to cfmeta.
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
			name: "Vocabulary",
			usage: `
              Vocabulary specifies the path to a TOML file holding the
              layer vocabulary, vector pairs and hidden layers. If it is
              empty, the built-in vocabulary is used. The path can be a
              local file, a URL or a blob (gs://, s3:// or file://).`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "TimeStandardName",
			usage: `
              TimeStandardName specifies the composite standard name of the
              variable that holds the times of each record.`,
			defaultVal: cfmeta.DefaultTimeStandardName,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "LegacyCoordinateProbe",
			usage: `
              LegacyCoordinateProbe specifies whether coordinate variable
              pairs are chosen by checking for only one variable of each
              pair (lon, y, lon_u and lon_v) rather than both.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "LogFile",
			usage: `
              LogFile specifies the path to a file where log messages are
              written in addition to standard error. Log files are rotated
              as they grow. Environment variables are expanded.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "LogLevel",
			usage: `
              LogLevel specifies the lowest level of log messages to show.
              It can be debug, info, warn or error.`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Format",
			usage: `
              Format specifies the output format. It can be table, json,
              geojson or toml. geojson is available for the extent, harvest
              and search commands, and toml for the vocab command.`,
			shorthand:  "f",
			defaultVal: "table",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Harvest.Sources",
			usage: `
              Harvest.Sources specifies datasets to harvest in addition to
              any given as arguments. Sources can be local files, URLs or
              blobs. Environment variables are expanded.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{harvestCmd.Flags()},
		},
		{
			name: "Harvest.Concurrency",
			usage: `
              Harvest.Concurrency specifies the number of datasets to
              process at once. Zero means the number of processors.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{harvestCmd.Flags()},
		},
		{
			name: "CatalogFile",
			usage: `
              CatalogFile specifies the JSON file that harvested records are
              added to and that searches read from.`,
			defaultVal: "catalog.json",
			flagsets:   []*pflag.FlagSet{harvestCmd.Flags(), searchCmd.Flags()},
		},
		{
			name: "BBox",
			usage: `
              BBox restricts a search to records whose spatial extent
              intersects the box minLon,minLat,maxLon,maxLat.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{searchCmd.Flags()},
		},
		{
			name: "Region",
			usage: `
              Region restricts a search to records whose spatial extent
              intersects the bounds of the Polygon or MultiPolygon in the
              given GeoJSON file. It cannot be combined with BBox.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{searchCmd.Flags()},
		},
		{
			name: "Layer",
			usage: `
              Layer restricts a search to records that provide the given
              layer, either on its own or as part of a vector layer.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{searchCmd.Flags()},
		},
	}

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
			default:
				panic("invalid argument type")
			}
		}
	}

	Cfg = newConfig()
}

// newConfig returns a configuration bound to the command line flags
// and to environment variables.
func newConfig() *viper.Viper {
	cfg := viper.New()

	// Set the prefix for configuration environment variables.
	cfg.SetEnvPrefix("CFMETA")
	cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cfg.AutomaticEnv()

	for _, option := range options {
		cfg.BindPFlag(option.name, option.flagsets[0].Lookup(option.name))
	}
	return cfg
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(layersCmd)
	Root.AddCommand(extentCmd)
	Root.AddCommand(inspectCmd)
	Root.AddCommand(vocabCmd)
	Root.AddCommand(harvestCmd)
	Root.AddCommand(searchCmd)
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "cfmeta",
	Short: "Derive discovery metadata from CF NetCDF datasets.",
	Long: `cfmeta reads oceanographic NetCDF datasets, matches their variables against a
vocabulary of CF standard names, and reports the spatial extent, temporal
extent and map layers (with default styles) that each dataset provides.
Harvested metadata can be collected into a searchable catalog.

Refer to the subcommand documentation for configuration options and default settings.
Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'CFMETA_var' where 'var' is the
name of the variable to be set.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

// versionCmd prints the version number.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of cfmeta.",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "cfmeta v%s\n", cfmeta.Version)
	},
	DisableAutoGenTag: true,
}

// layersCmd lists the layers a dataset provides.
var layersCmd = &cobra.Command{
	Use:   "layers FILE",
	Short: "List the layers a dataset provides.",
	Long: `layers lists the map layers that the given dataset provides and the default
style of each. Vector components found together are reported as a single
vector layer.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := resolverFromConfig(Cfg)
		if err != nil {
			return err
		}
		ds, err := openSource(context.TODO(), args[0])
		if err != nil {
			return err
		}
		defer ds.Close()
		return writeLayers(cmd.OutOrStdout(), Cfg.GetString("Format"), r.Layers(ds))
	},
	DisableAutoGenTag: true,
}

// extentCmd prints the spatial and temporal extent of a dataset.
var extentCmd = &cobra.Command{
	Use:   "extent FILE",
	Short: "Print the extent of a dataset.",
	Long: `extent prints the spatial extent (minimum and maximum longitude and latitude)
and the temporal extent (first and last record times) of the given dataset.
Extents that cannot be determined are left empty.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := resolverFromConfig(Cfg)
		if err != nil {
			return err
		}
		ds, err := openSource(context.TODO(), args[0])
		if err != nil {
			return err
		}
		defer ds.Close()
		m := &cfmeta.Metadata{
			Label:          args[0],
			SpatialExtent:  r.SpatialExtent(ds, args[0]),
			TemporalExtent: r.TemporalExtent(ds, r.TimeStandardName),
		}
		return writeExtent(cmd.OutOrStdout(), Cfg.GetString("Format"), m)
	},
	DisableAutoGenTag: true,
}

// inspectCmd prints all metadata derived from a dataset.
var inspectCmd = &cobra.Command{
	Use:   "inspect FILE",
	Short: "Print all metadata derived from a dataset.",
	Long: `inspect prints the global metadata, extents and layers of the given dataset,
followed by its variables with their composite standard names and the
vocabulary layers they match.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := resolverFromConfig(Cfg)
		if err != nil {
			return err
		}
		ds, err := openSource(context.TODO(), args[0])
		if err != nil {
			return err
		}
		defer ds.Close()
		return writeInspect(cmd.OutOrStdout(), Cfg.GetString("Format"), r, ds, r.Describe(ds, args[0]))
	},
	DisableAutoGenTag: true,
}

// vocabCmd prints the vocabulary in use.
var vocabCmd = &cobra.Command{
	Use:   "vocab",
	Short: "Print the layer vocabulary.",
	Long: `vocab prints the vocabulary in use: either the built-in vocabulary or the
one given by the Vocabulary option. With --Format=table the layers are listed
in a table; otherwise the vocabulary is written in the TOML format accepted
by the Vocabulary option, or as JSON.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := vocabularyFromConfig(Cfg)
		if err != nil {
			return err
		}
		return writeVocabulary(cmd.OutOrStdout(), Cfg.GetString("Format"), f)
	},
	DisableAutoGenTag: true,
}

// harvestCmd harvests datasets into the catalog.
var harvestCmd = &cobra.Command{
	Use:   "harvest [SOURCE...]",
	Short: "Add datasets to the catalog.",
	Long: `harvest derives metadata from each source and adds the resulting records to
the catalog in CatalogFile, creating the file if it does not exist. Records
for sources that are already in the catalog are replaced. Sources that cannot
be read are logged and skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := resolverFromConfig(Cfg)
		if err != nil {
			return err
		}
		sources := append(append([]string{}, args...), expandStringSlice(Cfg.GetStringSlice("Harvest.Sources"))...)
		if len(sources) == 0 {
			return fmt.Errorf("cfmeta: no sources to harvest")
		}
		h := &catalog.Harvester{
			Resolver:    r,
			Open:        openSource,
			Log:         Log,
			Concurrency: Cfg.GetInt("Harvest.Concurrency"),
		}
		records, err := h.Harvest(context.TODO(), sources...)
		if err != nil {
			return err
		}
		catalogFile := os.ExpandEnv(Cfg.GetString("CatalogFile"))
		c, err := loadCatalog(catalogFile, true)
		if err != nil {
			return err
		}
		c.Add(records...)
		if err := saveCatalog(catalogFile, c); err != nil {
			return err
		}
		Log.WithField("records", c.Len()).Infof("wrote catalog %s", catalogFile)
		return writeRecords(cmd.OutOrStdout(), Cfg.GetString("Format"), records)
	},
	DisableAutoGenTag: true,
}

// searchCmd searches the catalog.
var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search the catalog.",
	Long: `search lists the records in CatalogFile that match the BBox or Region and
Layer options. With no options, all records are listed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadCatalog(os.ExpandEnv(Cfg.GetString("CatalogFile")), false)
		if err != nil {
			return err
		}
		b, err := searchBounds(Cfg)
		if err != nil {
			return err
		}
		records := search(c, b, Cfg.GetString("Layer"))
		Log.WithField("records", len(records)).Debug("search complete")
		return writeRecords(cmd.OutOrStdout(), Cfg.GetString("Format"), records)
	},
	DisableAutoGenTag: true,
}
