package models

// Warehouse tables are populated by an external ETL process. This service only reads them.
const (
	FactSalesTable       = "fact_sales"
	DimOrganizationTable = "dim_organization"
	DimTimeTable         = "dim_time"
)

// FactSales is one row per sale transaction.
type FactSales struct {
	SaleID  int     `json:"sale_id"`
	OrgID   int     `json:"org_id"`
	DateKey int     `json:"date_key"`
	Revenue float64 `json:"revenue"`
	Margin  float64 `json:"margin"`
}

// DimOrganization is one row per organizational unit.
type DimOrganization struct {
	OrgID          int    `json:"org_id"`
	Region         string `json:"region"`
	DepartmentName string `json:"department_name"`
}

// DimTime is one row per calendar date.
type DimTime struct {
	DateKey int `json:"date_key"`
	Year    int `json:"year"`
	Month   int `json:"month"`
}

// WarehouseSchema creates the star schema. The statements only use types shared by
// PostgreSQL, MySQL, SQLite and DuckDB.
var WarehouseSchema = []string{
	`CREATE TABLE IF NOT EXISTS dim_organization (
		org_id INTEGER PRIMARY KEY,
		region VARCHAR(100) NOT NULL,
		department_name VARCHAR(100) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS dim_time (
		date_key INTEGER PRIMARY KEY,
		year INTEGER NOT NULL,
		month INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS fact_sales (
		sale_id INTEGER PRIMARY KEY,
		org_id INTEGER NOT NULL REFERENCES dim_organization(org_id),
		date_key INTEGER NOT NULL REFERENCES dim_time(date_key),
		revenue DECIMAL(14,2),
		margin DECIMAL(14,2)
	)`,
}
