package pipeline

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/aqimet/aqipipe/internal/feature"
	"github.com/aqimet/aqipipe/internal/store"
)

// exportRow is the fixed parquet schema for history exports. Derived feature
// columns vary with the lag/window configuration, so only the stable raw
// observation columns are exported; nullable source fields stay OPTIONAL.
type exportRow struct {
	Ts          int64    `parquet:"name=ts, type=INT64, convertedtype=TIMESTAMP_MILLIS"`
	City        string   `parquet:"name=city, type=BYTE_ARRAY, convertedtype=UTF8"`
	Aqi         float64  `parquet:"name=aqi, type=DOUBLE"`
	Pm25        *float64 `parquet:"name=pm25, type=DOUBLE, repetitiontype=OPTIONAL"`
	Pm10        *float64 `parquet:"name=pm10, type=DOUBLE, repetitiontype=OPTIONAL"`
	O3          *float64 `parquet:"name=o3, type=DOUBLE, repetitiontype=OPTIONAL"`
	No2         *float64 `parquet:"name=no2, type=DOUBLE, repetitiontype=OPTIONAL"`
	So2         *float64 `parquet:"name=so2, type=DOUBLE, repetitiontype=OPTIONAL"`
	Co          *float64 `parquet:"name=co, type=DOUBLE, repetitiontype=OPTIONAL"`
	No          *float64 `parquet:"name=no, type=DOUBLE, repetitiontype=OPTIONAL"`
	Nh3         *float64 `parquet:"name=nh3, type=DOUBLE, repetitiontype=OPTIONAL"`
	Temperature *float64 `parquet:"name=temperature, type=DOUBLE, repetitiontype=OPTIONAL"`
	FeelsLike   *float64 `parquet:"name=feels_like, type=DOUBLE, repetitiontype=OPTIONAL"`
	Humidity    *float64 `parquet:"name=humidity, type=DOUBLE, repetitiontype=OPTIONAL"`
	Pressure    *float64 `parquet:"name=pressure, type=DOUBLE, repetitiontype=OPTIONAL"`
	WindSpeed   *float64 `parquet:"name=wind_speed, type=DOUBLE, repetitiontype=OPTIONAL"`
	WindDeg     *float64 `parquet:"name=wind_deg, type=DOUBLE, repetitiontype=OPTIONAL"`
	Clouds      *float64 `parquet:"name=clouds, type=DOUBLE, repetitiontype=OPTIONAL"`
	Latitude    float64  `parquet:"name=latitude, type=DOUBLE"`
	Longitude   float64  `parquet:"name=longitude, type=DOUBLE"`
}

// Exporter dumps the feature history to local files for offline analysis.
type Exporter struct {
	Store store.FeatureStore
}

// ExportParquet writes the raw-observation view of the history to a
// snappy-compressed parquet file.
func (e *Exporter) ExportParquet(ctx context.Context, path string) error {
	records, err := e.Store.ReadAll(ctx)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create parquet file: %w", err)
	}
	defer f.Close()

	pw, err := writer.NewParquetWriterFromWriter(f, new(exportRow), 4)
	if err != nil {
		return fmt.Errorf("create parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, r := range records {
		row := exportRow{
			Ts:   r.Timestamp.UTC().UnixMilli(),
			City: r.City,
		}
		row.Aqi, _ = r.Get(feature.TargetColumn)
		row.Latitude, _ = r.Get("latitude")
		row.Longitude, _ = r.Get("longitude")

		opt := func(col string) *float64 {
			if v, ok := r.Get(col); ok {
				return &v
			}
			return nil
		}
		row.Pm25 = opt("pm25")
		row.Pm10 = opt("pm10")
		row.O3 = opt("o3")
		row.No2 = opt("no2")
		row.So2 = opt("so2")
		row.Co = opt("co")
		row.No = opt("no")
		row.Nh3 = opt("nh3")
		row.Temperature = opt("temperature")
		row.FeelsLike = opt("feels_like")
		row.Humidity = opt("humidity")
		row.Pressure = opt("pressure")
		row.WindSpeed = opt("wind_speed")
		row.WindDeg = opt("wind_deg")
		row.Clouds = opt("clouds")

		if err := pw.Write(row); err != nil {
			return fmt.Errorf("write parquet row: %w", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("finalize parquet file: %w", err)
	}

	log.Printf("INFO: exported %d rows to %s", len(records), path)
	return nil
}

// ExportCSV writes the full history, including derived feature columns, as
// CSV with the canonical column ordering.
func (e *Exporter) ExportCSV(ctx context.Context, path string) error {
	records, err := e.Store.ReadAll(ctx)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	cols := feature.Columns(records)
	w := csv.NewWriter(f)
	if err := w.Write(append([]string{"timestamp", "city"}, cols...)); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range records {
		row := []string{r.Timestamp.UTC().Format(time.RFC3339), r.City}
		for _, col := range cols {
			if v, ok := r.Get(col); ok {
				row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
			} else {
				row = append(row, "")
			}
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv file: %w", err)
	}

	log.Printf("INFO: exported %d rows to %s", len(records), path)
	return nil
}
