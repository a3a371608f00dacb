package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/thriftshop/storefront/config"
	"github.com/thriftshop/storefront/internal/app/repository"
	"github.com/thriftshop/storefront/internal/app/service"
	"github.com/thriftshop/storefront/internal/db"
)

func main() {
	yes := flag.Bool("yes", false, "import without asking for confirmation")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: go run ./cmd/seed [-yes] <catalog.xlsx>")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}
	filePath := flag.Arg(0)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	fmt.Printf("Reading XLSX file: %s\n", filePath)
	rows, report, err := readCatalog(filePath)
	if err != nil {
		log.Fatal("Failed to read XLSX:", err)
	}
	report.print(os.Stdout)

	if !*yes {
		fmt.Print("Do you want to proceed with the import? (yes/no): ")
		var confirm string
		fmt.Scanln(&confirm)
		if confirm != "yes" && confirm != "y" {
			fmt.Println("Import cancelled.")
			return
		}
	}

	importer := &catalogImporter{
		taxonomy: repository.NewTaxonomyRepository(db.GetDB()),
		products: service.NewProductService(
			repository.NewProductRepository(db.GetDB()),
			repository.NewTaxonomyRepository(db.GetDB()),
		),
	}
	created, failed := importer.importRows(rows)

	fmt.Println("Import completed.")
	fmt.Printf("  Products created: %d\n", created)
	fmt.Printf("  Products failed:  %d\n", failed)
}
