// Command tonsuu estimates cargo volume and tonnage for one truck photo.
//
//	tonsuu [-truck 4t] [-material 土砂] [-runs 3] [-json] photo.jpg
package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/YuujiKamura/TonSuuChecker-sub001/api/internal/estimate"
	"github.com/YuujiKamura/TonSuuChecker-sub001/api/internal/masterdata"
	"github.com/YuujiKamura/TonSuuChecker-sub001/api/internal/telegram"
	"github.com/YuujiKamura/TonSuuChecker-sub001/api/internal/vision"
	"github.com/YuujiKamura/TonSuuChecker-sub001/api/internal/vision/gemini"
)

func main() {
	var (
		truckClass = flag.String("truck", "", "pin the truck capacity class (default: auto-detect)")
		material   = flag.String("material", "", "pin the cargo material (default: auto-detect)")
		runs       = flag.Int("runs", 1, "independent voting runs")
		ensemble   = flag.Int("ensemble", estimate.DefaultEnsemble, "samples per phase within a run")
		tablesPath = flag.String("masterdata", "", "path to a masterdata JSON file (default: built-in tables)")
		asJSON     = flag.Bool("json", false, "print the raw record as JSON")
		timeout    = flag.Duration("timeout", 5*time.Minute, "overall deadline")
		model      = flag.String("model", "", "Gemini model override")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: tonsuu [flags] photo.jpg")
		flag.PrintDefaults()
		os.Exit(2)
	}

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		log.Fatal("missing required env GEMINI_API_KEY")
	}

	tables := masterdata.Default()
	if *tablesPath != "" {
		var err error
		tables, err = masterdata.Load(*tablesPath)
		if err != nil {
			log.Fatalf("masterdata: %v", err)
		}
	}
	if *truckClass != "" {
		if _, ok := tables.Truck(*truckClass); !ok {
			log.Fatalf("unknown truck class %q (registered: %v)", *truckClass, tables.TruckClasses())
		}
	}

	img, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		log.Fatal(err)
	}

	geminiModel := os.Getenv("GEMINI_MODEL")
	if geminiModel == "" {
		geminiModel = "gemini-2.5-flash"
	}
	eng := gemini.New(apiKey, geminiModel)
	if *model != "" {
		eng.SetModel(*model)
	}

	pipe := &estimate.Pipeline{
		Engine: eng,
		Tables: tables,
		Progress: func(u estimate.ProgressUpdate) {
			if u.Total > 1 {
				log.Printf("%s (%d/%d) %s", u.Phase, u.Run, u.Total, u.Detail)
				return
			}
			log.Printf("%s %s", u.Phase, u.Detail)
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	rec, err := pipe.RunVoted(ctx,
		base64.StdEncoding.EncodeToString(img),
		vision.PickMIME("", "", img),
		*runs,
		estimate.Options{TruckClass: *truckClass, Material: *material, Ensemble: *ensemble},
	)
	if err != nil {
		log.Fatal(err)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rec); err != nil {
			log.Fatal(err)
		}
		return
	}
	fmt.Println(telegram.FormatRecord(rec))
}
