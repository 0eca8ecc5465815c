package testhelpers

import (
	"fmt"

	"pncp/internal/config"
	"pncp/internal/db"

	. "github.com/onsi/ginkgo/v2"
	g "github.com/onsi/gomega"
	"gorm.io/gorm"
)

// OpenTestDB connects to DATABASE_URL, migrates and truncates every table.
// The running test is skipped when Postgres is not reachable.
func OpenTestDB() *gorm.DB {
	cfg, err := config.LoadConfig()
	g.Expect(err).NotTo(g.HaveOccurred())

	if cfg.DatabaseURL == "" {
		Skip("DATABASE_URL not set")
	}

	conn, err := db.InitDB(cfg.DatabaseURL, "silent")
	if err != nil {
		Skip("database not available: " + err.Error())
	}

	g.Expect(db.Migrate(conn)).To(g.Succeed())
	CleanupDB(conn)

	return conn
}

func CleanupDB(db *gorm.DB) {
	var tables []string

	err := db.Raw("SELECT tablename FROM pg_tables WHERE schemaname = 'public'").Scan(&tables).Error
	g.Expect(err).NotTo(g.HaveOccurred())

	if len(tables) == 0 {
		return
	}

	for _, table := range tables {
		if table == "spatial_ref_sys" || table == "schema_migrations" {
			continue
		}

		query := fmt.Sprintf("TRUNCATE TABLE \"%s\" RESTART IDENTITY CASCADE", table)
		err := db.Exec(query).Error
		g.Expect(err).NotTo(g.HaveOccurred(), "Failed to truncate table: "+table)
	}
}
