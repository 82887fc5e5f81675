// Command report prints a user's debt summary straight from the database:
// configuration, total paid, and the derived installment status. With -list
// it also dumps the ledger newest first.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/camu740/PayTrack/models"
	"github.com/camu740/PayTrack/pkg/installment"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func mustDBFromEnv() *gorm.DB {
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN not set in env")
	}
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	return gdb
}

func main() {
	email := flag.String("email", "", "email of the user to report on")
	list := flag.Bool("list", false, "also list individual payments")
	flag.Parse()
	if *email == "" {
		fmt.Println("usage: go run ./cmd/report -email <email> [-list]")
		os.Exit(2)
	}

	gdb := mustDBFromEnv()

	var user models.User
	if err := gdb.Where("email = ?", *email).First(&user).Error; err != nil {
		log.Fatalf("user not found: %v", err)
	}

	var cfg models.DebtConfig
	if err := gdb.Where("user_id = ?", user.ID).First(&cfg).Error; err != nil {
		log.Fatalf("no debt configuration for %s", user.Email)
	}

	var payments []models.Payment
	if err := gdb.Where("user_id = ?", user.ID).Order("created_at desc, id desc").Find(&payments).Error; err != nil {
		log.Fatalf("fetch payments failed: %v", err)
	}

	totalPaid := installment.SumPayments(payments)
	st := installment.ComputeStatus(cfg.TotalAmount, totalPaid, cfg.DefaultQuota)

	fmt.Printf("Report for user=%s:\n", user.Email)
	fmt.Printf("  total_amount=%s default_quota=%s\n", cfg.TotalAmount.StringFixed(2), cfg.DefaultQuota.StringFixed(2))
	fmt.Printf("  payments=%d total_paid=%s\n", len(payments), totalPaid.StringFixed(2))
	fmt.Printf("  remaining=%s adjusted_quota=%s remaining_payments=%d\n",
		st.RemainingAmount.StringFixed(2), st.AdjustedQuota.StringFixed(2), st.RemainingPayments)

	if *list {
		for _, p := range payments {
			fmt.Printf("%s|%s|%s|%s\n", p.PublicID, p.Amount.StringFixed(2), p.Concept, p.CreatedAt.Format(time.RFC3339))
		}
	}
}
