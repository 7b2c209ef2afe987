package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/reparalo-app/reparalo-backend/pkg/migrate"
)

func TestMigrationDirValidates(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("migration dir invalid: %v", err)
	}
}

func TestOffersMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_offers.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS offers",
		"FOREIGN KEY (request_id) REFERENCES repair_requests(id) ON DELETE CASCADE",
		"CHECK (estimated_cost_max >= estimated_cost_min)",
		"CHECK (estimated_days > 0)",
		"ux_offers_request_workshop",
		"DROP TABLE IF EXISTS offers",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestShipmentsMigrationEnforcesOneLegPerType(t *testing.T) {
	content := readMigration(t, "*_create_shipments.sql")

	checks := []string{
		"ux_shipments_request_type ON shipments (request_id, type)",
		"shipment_status_histories",
		"FOREIGN KEY (shipment_id) REFERENCES shipments(id) ON DELETE CASCADE",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestCounterOffersMigrationLimitsPendingRounds(t *testing.T) {
	content := readMigration(t, "*_create_counter_offers.sql")

	if !strings.Contains(content, "ux_counter_offers_request_pending") {
		t.Errorf("missing partial unique index on pending rounds")
	}
	if !strings.Contains(content, "WHERE status = 'pending'") {
		t.Errorf("pending index should be partial")
	}
}

func TestReviewsMigrationIsOnePerRequest(t *testing.T) {
	content := readMigration(t, "*_create_reviews.sql")

	checks := []string{
		"ux_reviews_request_id ON reviews (request_id)",
		"CHECK (rating >= 1 AND rating <= 5)",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration matching %q found", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}
