// Package sample produces deterministic POS and delivery-platform exports in
// the layout of the shipped sample profile, plus the structured aggregates
// behind the demo report.
package sample

import (
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"sales-reconciliation-service/internal/models"
	"sales-reconciliation-service/internal/parsers"
)

const dateLayout = "2006-01-02"

var (
	posHeader = []string{"Invoice no", "Date", "Channel", "Items", "Total (₹)"}

	platformAHeader = []string{
		"Order ID",
		"Date",
		"Status",
		"Net order value",
		"Service fee (commission)",
		"Extra inventory / ads / misc deductions",
	}

	platformBHeader = []string{
		"Order No",
		"Date",
		"Status",
		"Customer payable (Net bill value after taxes & discount) F = D + E",
		"Platform service fee (commission) G",
		"Sponsored delivery fee",
	}

	platformARate  = decimal.RequireFromString("0.20")
	platformBRate  = decimal.RequireFromString("0.22")
	platformAShare = decimal.RequireFromString("0.95")

	rupees = message.NewPrinter(language.English)
)

// Options controls the generated dataset
type Options struct {
	Seed   int64
	Start  time.Time
	Days   int
	Orders int
}

// DefaultOptions returns one week of sample trading
func DefaultOptions() Options {
	return Options{
		Seed:   42,
		Start:  time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Days:   7,
		Orders: 120,
	}
}

// Dataset holds the rows of each export, metadata rows included, and the
// totals a correct reconciliation of them must reproduce
type Dataset struct {
	Rows     map[models.SourceID][][]string
	Expected map[models.SourceID]models.SourceAggregate
}

// Generate builds a dataset. The same options always yield the same rows.
//
// Every order is rung up on the POS. Roughly a third is routed to each
// platform, the rest is dine-in. Platform A settles 95% of the ticket and
// platform B the full ticket; about one platform order in ten is cancelled.
func Generate(opts Options) Dataset {
	if opts.Days <= 0 {
		opts.Days = 1
	}
	rng := rand.New(rand.NewSource(opts.Seed))
	profile := parsers.SampleProfile()
	end := opts.Start.AddDate(0, 0, opts.Days-1)

	pos := newAccumulator(profile.POS)
	platformA := newAccumulator(profile.PlatformA)
	platformB := newAccumulator(profile.PlatformB)

	pos.rows = append(pos.rows,
		[]string{"Outlet: Sample Kitchen"},
		[]string{"Report: Sales register"},
		[]string{fmt.Sprintf("From: %s To: %s", opts.Start.Format(dateLayout), end.Format(dateLayout))},
		[]string{"Currency: INR"},
		[]string{"Generated by: POS back office"},
		posHeader,
	)
	platformA.rows = append(platformA.rows,
		[]string{"Platform A settlement report"},
		[]string{"Restaurant: Sample Kitchen"},
		[]string{fmt.Sprintf("Settlement period: %s - %s", opts.Start.Format(dateLayout), end.Format(dateLayout))},
		[]string{"All amounts in INR"},
		platformAHeader,
	)
	platformB.rows = append(platformB.rows,
		[]string{"Platform B partner payout"},
		[]string{"Outlet: Sample Kitchen"},
		[]string{"Columns D and E are computed before taxes"},
		platformBHeader,
	)

	for i := 0; i < opts.Orders; i++ {
		date := opts.Start.AddDate(0, 0, rng.Intn(opts.Days)).Format(dateLayout)
		total := decimal.New(int64(15000+rng.Intn(85000)), -2)
		items := 1 + rng.Intn(6)
		channel := rng.Float64()
		cancelled := rng.Float64() < 0.1
		adSpend := decimal.Zero
		if rng.Float64() < 0.3 {
			adSpend = decimal.New(int64(5+rng.Intn(21)), 0)
		}

		invoice := fmt.Sprintf("INV-%05d", i+1)
		switch {
		case channel < 0.35:
			net := total.Mul(platformAShare).Round(2)
			fee := net.Mul(platformARate).Round(2)
			status := "DELIVERED"
			if cancelled {
				status = "CANCELLED"
			}
			platformA.add(!cancelled, net, fee, adSpend, []string{
				fmt.Sprintf("AO%06d", i+1), date, status,
				net.StringFixed(2), fee.StringFixed(2), adSpend.StringFixed(2),
			})
			pos.add(true, total, decimal.Zero, decimal.Zero, posRow(invoice, date, "Platform A", items, total))
		case channel < 0.6:
			fee := total.Mul(platformBRate).Round(2)
			status := "delivered"
			if cancelled {
				status = "rejected"
			}
			platformB.add(!cancelled, total, fee, adSpend, []string{
				fmt.Sprintf("B%07d", i+1), date, status,
				total.StringFixed(2), fee.StringFixed(2), adSpend.StringFixed(2),
			})
			pos.add(true, total, decimal.Zero, decimal.Zero, posRow(invoice, date, "Platform B", items, total))
		default:
			pos.add(true, total, decimal.Zero, decimal.Zero, posRow(invoice, date, "Dine-in", items, total))
		}
	}

	// Voided tickets keep their line but lose the invoice number.
	pos.rows = append(pos.rows, []string{"", end.Format(dateLayout), "Void", "0", "0.00"})
	pos.expected.RowsRead++
	pos.expected.RowsExcluded++

	return Dataset{
		Rows: map[models.SourceID][][]string{
			models.SourcePOS:       pos.rows,
			models.SourcePlatformA: platformA.rows,
			models.SourcePlatformB: platformB.rows,
		},
		Expected: map[models.SourceID]models.SourceAggregate{
			models.SourcePOS:       pos.expected,
			models.SourcePlatformA: platformA.expected,
			models.SourcePlatformB: platformB.expected,
		},
	}
}

// StructuredAggregates returns the fixed totals of the demo report: POS
// 45000 over 200 orders against 15000/80 on platform A and 12000/50 on
// platform B, with 20% and 22% effective commission.
func StructuredAggregates() (pos, platformA, platformB models.SourceAggregate) {
	profile := parsers.SampleProfile()

	pos = models.NewSourceAggregate(models.SourcePOS, profile.POS.Name)
	pos.Revenue = decimal.NewFromInt(45000)
	pos.OrderCount = 200

	platformA = models.NewSourceAggregate(models.SourcePlatformA, profile.PlatformA.Name)
	platformA.Revenue = decimal.NewFromInt(15000)
	platformA.OrderCount = 80
	platformA.Commission = decimal.NewFromInt(3000)
	platformA.AdSpend = decimal.NewFromInt(300)

	platformB = models.NewSourceAggregate(models.SourcePlatformB, profile.PlatformB.Name)
	platformB.Revenue = decimal.NewFromInt(12000)
	platformB.OrderCount = 50
	platformB.Commission = decimal.NewFromInt(2640)
	platformB.AdSpend = decimal.NewFromInt(250)

	return pos, platformA, platformB
}

type accumulator struct {
	rows     [][]string
	expected models.SourceAggregate
}

func newAccumulator(cfg parsers.SourceConfig) *accumulator {
	return &accumulator{expected: models.NewSourceAggregate(cfg.ID, cfg.Name)}
}

func (a *accumulator) add(counted bool, revenue, commission, adSpend decimal.Decimal, row []string) {
	a.rows = append(a.rows, row)
	a.expected.RowsRead++
	if !counted {
		a.expected.RowsExcluded++
		return
	}
	a.expected.OrderCount++
	a.expected.Revenue = a.expected.Revenue.Add(revenue)
	a.expected.Commission = a.expected.Commission.Add(commission)
	a.expected.AdSpend = a.expected.AdSpend.Add(adSpend)
}

func posRow(invoice, date, channel string, items int, total decimal.Decimal) []string {
	return []string{invoice, date, channel, strconv.Itoa(items), formatRupees(total)}
}

// formatRupees renders an amount the way POS exports do: "₹1,234.50"
func formatRupees(amount decimal.Decimal) string {
	return rupees.Sprintf("₹%.2f", amount.InexactFloat64())
}
