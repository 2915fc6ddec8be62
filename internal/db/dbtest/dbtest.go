// Package dbtest provides warehouse fixtures for tests.
package dbtest

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/rogerio-castellano/enterprise-bi/internal/models"
)

// Warehouse is a set of dimension and fact rows to load into a test database.
type Warehouse struct {
	Organizations []models.DimOrganization
	Dates         []models.DimTime
	Sales         []models.FactSales
}

// OpenSQLite creates an empty warehouse in a temporary SQLite file.
func OpenSQLite(t testing.TB) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "warehouse.db")
	database, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	CreateSchema(t, database)
	return database
}

func CreateSchema(t testing.TB, database *sql.DB) {
	t.Helper()
	for _, stmt := range models.WarehouseSchema {
		if _, err := database.ExecContext(context.Background(), stmt); err != nil {
			t.Fatalf("failed to create schema: %v", err)
		}
	}
}

// Truncate removes all rows, facts first.
func Truncate(t testing.TB, database *sql.DB) {
	t.Helper()
	for _, table := range []string{models.FactSalesTable, models.DimOrganizationTable, models.DimTimeTable} {
		if _, err := database.ExecContext(context.Background(), "DELETE FROM "+table); err != nil {
			t.Fatalf("failed to truncate %s: %v", table, err)
		}
	}
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func number(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Load inserts the warehouse rows. Literals are used so the statements work with every driver's
// placeholder style.
func Load(t testing.TB, database *sql.DB, w Warehouse) {
	t.Helper()
	ctx := context.Background()

	for _, o := range w.Organizations {
		stmt := fmt.Sprintf("INSERT INTO dim_organization (org_id, region, department_name) VALUES (%d, %s, %s)",
			o.OrgID, quote(o.Region), quote(o.DepartmentName))
		if _, err := database.ExecContext(ctx, stmt); err != nil {
			t.Fatalf("failed to insert organization %d: %v", o.OrgID, err)
		}
	}
	for _, d := range w.Dates {
		stmt := fmt.Sprintf("INSERT INTO dim_time (date_key, year, month) VALUES (%d, %d, %d)", d.DateKey, d.Year, d.Month)
		if _, err := database.ExecContext(ctx, stmt); err != nil {
			t.Fatalf("failed to insert date %d: %v", d.DateKey, err)
		}
	}
	for _, s := range w.Sales {
		stmt := fmt.Sprintf("INSERT INTO fact_sales (sale_id, org_id, date_key, revenue, margin) VALUES (%d, %d, %d, %s, %s)",
			s.SaleID, s.OrgID, s.DateKey, number(s.Revenue), number(s.Margin))
		if _, err := database.ExecContext(ctx, stmt); err != nil {
			t.Fatalf("failed to insert sale %d: %v", s.SaleID, err)
		}
	}
}

var (
	regions     = []string{"Malaysia", "New Zealand", "East", "West"}
	departments = []string{"Sales", "IT", "Finance", "Operations", "Marketing"}
)

// Random builds a reproducible warehouse. Amounts are whole numbers so sums are exact in
// float64 whatever order the database adds them in.
func Random(seed int64, orgs, months, sales int) Warehouse {
	rng := rand.New(rand.NewSource(seed))
	var w Warehouse

	for i := 1; i <= orgs; i++ {
		w.Organizations = append(w.Organizations, models.DimOrganization{
			OrgID:          i,
			Region:         regions[rng.Intn(len(regions))],
			DepartmentName: departments[rng.Intn(len(departments))],
		})
	}
	for i := 0; i < months; i++ {
		w.Dates = append(w.Dates, models.DimTime{
			DateKey: 20220101 + (i/12)*10000 + (i%12)*100,
			Year:    2022 + i/12,
			Month:   i%12 + 1,
		})
	}
	for i := 1; i <= sales; i++ {
		revenue := float64(rng.Intn(5000) + 1)
		w.Sales = append(w.Sales, models.FactSales{
			SaleID:  i,
			OrgID:   w.Organizations[rng.Intn(len(w.Organizations))].OrgID,
			DateKey: w.Dates[rng.Intn(len(w.Dates))].DateKey,
			Revenue: revenue,
			Margin:  float64(rng.Intn(int(revenue) + 1)),
		})
	}
	return w
}
