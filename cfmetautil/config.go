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

package cfmetautil

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/geojson"
	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/cfmeta"
	"github.com/spatialmodel/cfmeta/catalog"
	"github.com/spf13/cast"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log receives the log messages of all commands.
var Log = logrus.New()

// logFile is the rotating log file in use, if any.
var logFile *lumberjack.Logger

// setConfig finds and reads in the configuration file, if there is one,
// and sets up logging.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(os.ExpandEnv(cfgpath))
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("cfmeta: problem reading configuration file: %v", err)
		}
	}
	return setLog(Cfg.GetString("LogLevel"), os.ExpandEnv(Cfg.GetString("LogFile")))
}

// setLog sets the level and destination of Log.
func setLog(level, file string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("cfmeta: invalid LogLevel: %v", err)
	}
	Log.Level = lvl
	Log.Formatter = &logrus.TextFormatter{FullTimestamp: true}
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	if file == "" {
		Log.Out = os.Stderr
		return nil
	}
	logFile = &lumberjack.Logger{
		Filename:   file,
		MaxSize:    50, // megabytes
		MaxBackups: 5,
		MaxAge:     30, // days
	}
	Log.Out = io.MultiWriter(os.Stderr, logFile)
	return nil
}

// vocabularyFromConfig reads the vocabulary file specified in the
// configuration, or returns the built-in vocabulary if there isn't one.
func vocabularyFromConfig(cfg *viper.Viper) (*cfmeta.VocabularyFile, error) {
	path := os.ExpandEnv(cfg.GetString("Vocabulary"))
	if path == "" {
		return cfmeta.DefaultVocabularyFile(), nil
	}
	local, err := maybeDownload(context.TODO(), path)
	if err != nil {
		return nil, fmt.Errorf("cfmeta: getting Vocabulary: %v", err)
	}
	defer removeDownload(path, local)
	f, err := os.Open(local)
	if err != nil {
		return nil, fmt.Errorf("cfmeta: opening Vocabulary: %v", err)
	}
	defer f.Close()
	return cfmeta.ReadVocabulary(f)
}

// resolverFromConfig creates a Resolver from the configuration.
func resolverFromConfig(cfg *viper.Viper) (*cfmeta.Resolver, error) {
	f, err := vocabularyFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	r := f.Resolver()
	r.TimeStandardName = cfg.GetString("TimeStandardName")
	r.LegacyCoordinateProbe = cfg.GetBool("LegacyCoordinateProbe")
	r.Log = Log
	return r, nil
}

// expandStringSlice expands the environment variables in a slice of strings.
func expandStringSlice(s []string) []string {
	for i := 0; i < len(s); i++ {
		s[i] = os.ExpandEnv(s[i])
	}
	return s
}

// parseBBox parses a box given as minLon,minLat,maxLon,maxLat, either as
// a list or as a single comma-separated string. It returns nil if the box
// is empty.
func parseBBox(v interface{}) (*geom.Bounds, error) {
	s, err := cast.ToStringSliceE(v)
	if err != nil {
		return nil, fmt.Errorf("cfmeta: reading BBox: %v", err)
	}
	var fields []string
	for _, e := range s {
		for _, f := range strings.Split(e, ",") {
			if f = strings.TrimSpace(f); f != "" {
				fields = append(fields, f)
			}
		}
	}
	if len(fields) == 0 {
		return nil, nil
	}
	if len(fields) != 4 {
		return nil, fmt.Errorf("cfmeta: BBox must have 4 values (minLon,minLat,maxLon,maxLat) but has %d", len(fields))
	}
	var f [4]float64
	for i, field := range fields {
		if f[i], err = cast.ToFloat64E(field); err != nil {
			return nil, fmt.Errorf("cfmeta: reading BBox: %v", err)
		}
	}
	if f[0] > f[2] || f[1] > f[3] {
		return nil, fmt.Errorf("cfmeta: BBox minimum is greater than its maximum: %v", fields)
	}
	return &geom.Bounds{
		Min: geom.Point{X: f[0], Y: f[1]},
		Max: geom.Point{X: f[2], Y: f[3]},
	}, nil
}

// parseRegion reads a Polygon or MultiPolygon from a GeoJSON file.
func parseRegion(regionGeoJSONFile string) (geom.Polygon, error) {
	var region geom.Polygon
	if m := regionGeoJSONFile; m != "" {
		b, err := os.ReadFile(os.ExpandEnv(m))
		if err != nil {
			return nil, fmt.Errorf("cfmeta: reading Region file: %v", err)
		}
		j, err := decodeRegion(b)
		if err != nil {
			return nil, fmt.Errorf("cfmeta: decoding Region: %v", err)
		}
		switch r := j.(type) {
		case geom.Polygon:
			region = r
		case geom.MultiPolygon:
			for _, p := range r {
				region = append(region, p...)
			}
		default:
			return nil, fmt.Errorf("cfmeta: invalid Region geometry type %T", j)
		}
	}
	return region, nil
}

// decodeRegion decodes a GeoJSON geometry. The geojson package does not
// handle MultiPolygons, so each of their members is decoded as a Polygon.
func decodeRegion(b []byte) (geom.Geom, error) {
	var g geojson.Geometry
	if err := json.Unmarshal(b, &g); err != nil {
		return nil, err
	}
	if g.Type != "MultiPolygon" {
		return geojson.FromGeoJSON(&g)
	}
	members, ok := g.Coordinates.([]interface{})
	if !ok {
		return nil, geojson.InvalidGeometryError{}
	}
	mp := make(geom.MultiPolygon, len(members))
	for i, c := range members {
		p, err := geojson.FromGeoJSON(&geojson.Geometry{Type: "Polygon", Coordinates: c})
		if err != nil {
			return nil, err
		}
		mp[i] = p.(geom.Polygon)
	}
	return mp, nil
}

// searchBounds returns the search area from the BBox and Region options,
// or nil if neither is set.
func searchBounds(cfg *viper.Viper) (*geom.Bounds, error) {
	b, err := parseBBox(cfg.Get("BBox"))
	if err != nil {
		return nil, err
	}
	region, err := parseRegion(cfg.GetString("Region"))
	if err != nil {
		return nil, err
	}
	if region == nil {
		return b, nil
	}
	if b != nil {
		return nil, fmt.Errorf("cfmeta: only one of BBox and Region can be specified")
	}
	return region.Bounds(), nil
}

// search returns the records in c that intersect b (if not nil) and
// provide layer (if not empty).
func search(c *catalog.Catalog, b *geom.Bounds, layer string) []*catalog.Record {
	if b == nil {
		if layer == "" {
			return c.Records()
		}
		return c.WithLayer(layer)
	}
	var out []*catalog.Record
	for _, r := range c.Search(b) {
		if layer == "" || r.HasLayer(layer) {
			out = append(out, r)
		}
	}
	return out
}

// loadCatalog reads the catalog in path. If create is true, a
// missing file results in an empty catalog.
func loadCatalog(path string, create bool) (*catalog.Catalog, error) {
	if path == "" {
		return nil, fmt.Errorf("cfmeta: CatalogFile is not specified")
	}
	if _, err := os.Stat(path); create && os.IsNotExist(err) {
		return catalog.New(), nil
	}
	local, err := maybeDownload(context.TODO(), path)
	if err != nil {
		return nil, fmt.Errorf("cfmeta: getting CatalogFile: %v", err)
	}
	defer removeDownload(path, local)
	f, err := os.Open(local)
	if err != nil {
		return nil, fmt.Errorf("cfmeta: opening CatalogFile: %v", err)
	}
	defer f.Close()
	return catalog.ReadJSON(f)
}

// saveCatalog writes c to path.
func saveCatalog(path string, c *catalog.Catalog) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cfmeta: creating CatalogFile: %v", err)
	}
	if err := c.WriteJSON(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
