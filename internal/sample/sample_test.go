package sample

import (
	"bytes"
	"context"
	"os"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"sales-reconciliation-service/internal/aggregator"
	"sales-reconciliation-service/internal/models"
	"sales-reconciliation-service/internal/parsers"
	"sales-reconciliation-service/internal/reconciler"
)

func assertAggregate(t *testing.T, expected, actual models.SourceAggregate) {
	t.Helper()
	if expected.Source != actual.Source {
		t.Errorf("source: expected %s, got %s", expected.Source, actual.Source)
	}
	if expected.OrderCount != actual.OrderCount {
		t.Errorf("%s orders: expected %d, got %d", expected.Source, expected.OrderCount, actual.OrderCount)
	}
	if expected.RowsRead != actual.RowsRead || expected.RowsExcluded != actual.RowsExcluded {
		t.Errorf("%s rows: expected %d read %d excluded, got %d and %d", expected.Source,
			expected.RowsRead, expected.RowsExcluded, actual.RowsRead, actual.RowsExcluded)
	}
	if !expected.Revenue.Equal(actual.Revenue) {
		t.Errorf("%s revenue: expected %s, got %s", expected.Source, expected.Revenue, actual.Revenue)
	}
	if !expected.Commission.Equal(actual.Commission) {
		t.Errorf("%s commission: expected %s, got %s", expected.Source, expected.Commission, actual.Commission)
	}
	if !expected.AdSpend.Equal(actual.AdSpend) {
		t.Errorf("%s ad spend: expected %s, got %s", expected.Source, expected.AdSpend, actual.AdSpend)
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	first := Generate(DefaultOptions())
	second := Generate(DefaultOptions())
	if !reflect.DeepEqual(first.Rows, second.Rows) {
		t.Error("the same seed should produce the same exports")
	}

	other := DefaultOptions()
	other.Seed = 7
	if reflect.DeepEqual(first.Rows, Generate(other).Rows) {
		t.Error("a different seed should produce different exports")
	}
}

func TestGenerate_Shape(t *testing.T) {
	opts := DefaultOptions()
	ds := Generate(opts)
	profile := parsers.SampleProfile()

	for _, id := range models.AllSources() {
		cfg, _ := profile.Get(id)
		rows := ds.Rows[id]
		if len(rows) <= cfg.HeaderSkipRows+1 {
			t.Fatalf("%s: expected data rows below the header, got %d rows", id, len(rows))
		}

		expected := ds.Expected[id]
		if want := len(rows) - cfg.HeaderSkipRows - 1; expected.RowsRead != want {
			t.Errorf("%s: RowsRead = %d, want %d", id, expected.RowsRead, want)
		}
		if expected.OrderCount <= 0 {
			t.Errorf("%s: expected counted orders, got %d", id, expected.OrderCount)
		}
	}

	pos := ds.Expected[models.SourcePOS]
	if pos.OrderCount != opts.Orders {
		t.Errorf("POS orders = %d, want %d", pos.OrderCount, opts.Orders)
	}
	if pos.RowsExcluded != 1 {
		t.Errorf("POS excluded rows = %d, want 1", pos.RowsExcluded)
	}

	platformOrders := ds.Expected[models.SourcePlatformA].OrderCount + ds.Expected[models.SourcePlatformB].OrderCount
	if platformOrders >= pos.OrderCount {
		t.Errorf("platform orders %d should be fewer than POS orders %d", platformOrders, pos.OrderCount)
	}
}

func TestFormatRupees(t *testing.T) {
	amounts := []string{"150.00", "999.99", "1234.50", "12000.05"}
	for _, a := range amounts {
		t.Run(a, func(t *testing.T) {
			formatted := formatRupees(decimal.RequireFromString(a))
			if !strings.Contains(formatted, "₹") {
				t.Errorf("%q has no rupee sign", formatted)
			}
			if !parsers.CleanNumber(formatted).Equal(decimal.RequireFromString(a)) {
				t.Errorf("%q does not clean back to %s", formatted, a)
			}
		})
	}
}

func TestSampleProfile_ParsesSampleExports(t *testing.T) {
	ds := Generate(DefaultOptions())
	profile := parsers.SampleProfile()

	for _, format := range []Format{FormatCSV, FormatXLSX} {
		t.Run(string(format), func(t *testing.T) {
			for _, id := range models.AllSources() {
				cfg, _ := profile.Get(id)

				var buf bytes.Buffer
				var err error
				if format == FormatXLSX {
					err = WriteXLSX(&buf, "Orders", ds.Rows[id])
				} else {
					err = WriteCSV(&buf, ds.Rows[id])
				}
				if err != nil {
					t.Fatalf("%s: write error = %v", id, err)
				}

				table, err := parsers.Decode(cfg, parsers.BytesInput("export."+string(format), buf.Bytes()))
				if err != nil {
					t.Fatalf("%s: Decode() error = %v", id, err)
				}

				rows, err := parsers.ParseTable(cfg, table)
				if err != nil {
					t.Fatalf("%s: ParseTable() error = %v", id, err)
				}

				assertAggregate(t, ds.Expected[id], aggregator.Aggregate(cfg, rows))
			}
		})
	}
}

func TestWriteDir_EndToEnd(t *testing.T) {
	ds := Generate(DefaultOptions())
	dir := t.TempDir()

	paths, err := WriteDir(dir, FormatXLSX, ds)
	if err != nil {
		t.Fatalf("WriteDir() error = %v", err)
	}
	if len(paths) != 3 {
		t.Fatalf("expected 3 exports, got %d", len(paths))
	}

	inputs := make(map[models.SourceID]parsers.SourceInput, len(paths))
	for id, path := range paths {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("export %s not written: %v", path, err)
		}
		inputs[id] = parsers.FileInput(path)
	}

	gen, err := reconciler.NewGenerator(reconciler.DefaultConfig(),
		reconciler.WithClock(func() time.Time { return time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC) }))
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}

	report, err := gen.Generate(context.Background(), inputs)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	pos := ds.Expected[models.SourcePOS]
	platformRevenue := ds.Expected[models.SourcePlatformA].Revenue.Add(ds.Expected[models.SourcePlatformB].Revenue)
	if !report.Summary.PosRevenue.Equal(pos.Revenue) {
		t.Errorf("PosRevenue = %s, want %s", report.Summary.PosRevenue, pos.Revenue)
	}
	if want := pos.Revenue.Sub(platformRevenue); !report.Summary.RevenueVariance.Equal(want) {
		t.Errorf("RevenueVariance = %s, want %s", report.Summary.RevenueVariance, want)
	}
	if report.Summary.Status != models.StatusFail {
		t.Errorf("Status = %s, want FAIL", report.Summary.Status)
	}
	if report.Period != "2024-03-01 to 2024-03-07" {
		t.Errorf("Period = %q", report.Period)
	}
	if len(report.PerformanceData) == 0 {
		t.Error("expected performance data")
	}
}

func TestWriteDir_InvalidFormat(t *testing.T) {
	if _, err := WriteDir(t.TempDir(), Format("pdf"), Generate(DefaultOptions())); err == nil {
		t.Error("expected an error for an unknown format")
	}
}

func TestStructuredAggregates(t *testing.T) {
	pos, platformA, platformB := StructuredAggregates()

	if pos.Source != models.SourcePOS || pos.OrderCount != 200 {
		t.Errorf("unexpected POS aggregate %s with %d orders", pos.Source, pos.OrderCount)
	}
	if aov := pos.AverageOrderValue(); !aov.Equal(decimal.NewFromInt(225)) {
		t.Errorf("POS AOV = %s, want 225", aov)
	}
	if rate := platformA.EffectiveCommissionRate(); !rate.Equal(decimal.RequireFromString("0.2")) {
		t.Errorf("platform A commission rate = %s, want 0.2", rate)
	}
	if rate := platformB.EffectiveCommissionRate(); !rate.Equal(decimal.RequireFromString("0.22")) {
		t.Errorf("platform B commission rate = %s, want 0.22", rate)
	}
}
