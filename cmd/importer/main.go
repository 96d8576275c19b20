package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/samirrijal/mapboot/internal/app"
	"github.com/samirrijal/mapboot/internal/pkg/config"
)

// ---------------------------------------------------------------------------
// Manifest types
// ---------------------------------------------------------------------------

// Manifest lists the GeoJSON datasets to import, one view per dataset.
type Manifest struct {
	Source   string    `json:"source"`
	Datasets []Dataset `json:"datasets"`
}

// Dataset is a FeatureCollection of points read from Path or URL.
type Dataset struct {
	Slug          string `json:"slug"`
	Path          string `json:"path,omitempty"`
	URL           string `json:"url,omitempty"`
	LabelProperty string `json:"label_property"`
	Container     string `json:"container,omitempty"`
	Zoom          *int   `json:"zoom,omitempty"`
}

// ---------------------------------------------------------------------------
// Main
// ---------------------------------------------------------------------------

func main() {
	cfg, err := config.Load("mapboot-importer")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	manifestPath := "manifest.json"
	if len(os.Args) > 1 {
		manifestPath = os.Args[1]
	}
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		log.Fatalf("read manifest: %v", err)
	}
	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		log.Fatalf("parse manifest: %v", err)
	}

	// Optional CLI arg: slug list
	slugFilter := map[string]bool{}
	if len(os.Args) > 2 {
		for _, s := range strings.Split(os.Args[2], ",") {
			slugFilter[strings.TrimSpace(s)] = true
		}
	}

	ctx := context.Background()
	stack, err := app.Build(ctx, cfg)
	if err != nil {
		log.Fatalf("build services: %v", err)
	}
	defer stack.Close()
	if stack.DB == nil {
		log.Printf("WARNING: storage driver %q keeps views in memory, imported views are discarded on exit", cfg.Storage.Driver)
	}

	log.Printf("mapboot importer: %d datasets from %s", len(manifest.Datasets), manifest.Source)

	imp := newImporter(stack.Maps, 30*time.Second)

	var wg sync.WaitGroup
	sem := make(chan struct{}, 4) // max 4 concurrent datasets

	for _, ds := range manifest.Datasets {
		if len(slugFilter) > 0 && !slugFilter[ds.Slug] {
			continue
		}

		wg.Add(1)
		go func(ds Dataset) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			res, err := imp.Import(ctx, ds)
			if err != nil {
				log.Printf("ERROR [%s]: %v", ds.Slug, err)
				return
			}
			log.Printf("[%s] view=%s markers=%d skipped=%d failed=%d", ds.Slug, res.ViewID, res.Markers, res.Skipped, res.Failed)
		}(ds)
	}

	wg.Wait()
	log.Println("import complete")
}
