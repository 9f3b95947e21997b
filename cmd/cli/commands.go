package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/dvloznov/tally-ledger/internal/domain"
	"github.com/dvloznov/tally-ledger/internal/ledger"
	"github.com/google/subcommands"
)

// errUsage marks bad command lines.
var errUsage = errors.New("usage error")

func commands(e *env) []subcommands.Command {
	return []subcommands.Command{
		&recalcCmd{env: e},
		&outstandingCmd{env: e},
		&itemsCmd{env: e},
		&ledgerCmd{env: e},
		&listCmd{env: e},
		&createCmd{env: e},
		&updateCmd{env: e},
		&partnerCmd{env: e},
	}
}

// exit reports err on stderr and maps it to an exit status.
func exit(err error) subcommands.ExitStatus {
	if err == nil {
		return subcommands.ExitSuccess
	}
	fmt.Fprintln(os.Stderr, err)
	if errors.Is(err, errUsage) {
		return subcommands.ExitUsageError
	}
	return subcommands.ExitFailure
}

func setYear(args ledger.Args, year int) {
	if year != 0 {
		args["year"] = year
	}
}

func setString(args ledger.Args, name, v string) {
	if v = strings.TrimSpace(v); v != "" {
		args[name] = v
	}
}

type recalcCmd struct {
	env     *env
	partner string
	year    int
}

func (*recalcCmd) Name() string { return "recalc" }
func (*recalcCmd) Synopsis() string {
	return "recompute the outstanding amounts of a partner for one year"
}
func (*recalcCmd) Usage() string {
	return `recalc -partner <name> [-year <yyyy>]

  Matches the partner's debits and credits on every clearing account in the
  order the bookings were recorded, not by booking date, and stores what is
  left open on each booking.
`
}

func (c *recalcCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.partner, "partner", "", "Partner name or alias (required).")
	f.IntVar(&c.year, "year", 0, "Year to reconcile, the current year by default.")
}

func (c *recalcCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.partner == "" {
		return exit(fmt.Errorf("recalc: -partner is required: %w", errUsage))
	}
	args := ledger.Args{"partner": c.partner}
	setYear(args, c.year)
	res, err := c.env.dispatch(ctx, ledger.OpRecalculateOutstanding, args)
	if err != nil {
		return exit(err)
	}
	_, err = fmt.Fprintln(c.env.out, res.Message)
	return exit(err)
}

type outstandingCmd struct {
	env  *env
	year int
	out  output
}

func (*outstandingCmd) Name() string     { return "outstanding" }
func (*outstandingCmd) Synopsis() string { return "list every booking of a year with an open amount" }
func (*outstandingCmd) Usage() string {
	return "outstanding [-year <yyyy>] [-format text|csv|json] [-upload | -uri gs://...]\n"
}

func (c *outstandingCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.year, "year", 0, "Year, the current year by default.")
	c.out.setFlags(f)
}

func (c *outstandingCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := ledger.Args{}
	setYear(args, c.year)
	res, err := c.env.dispatch(ctx, ledger.OpGetOutstanding, args)
	if err != nil {
		return exit(err)
	}
	return exit(c.out.emit(ctx, c.env, res))
}

type itemsCmd struct {
	env     *env
	year    int
	partner string
	out     output
}

func (*itemsCmd) Name() string     { return "items" }
func (*itemsCmd) Synopsis() string { return "list the open bookings of a year, optionally for one partner" }
func (*itemsCmd) Usage() string {
	return "items [-year <yyyy>] [-partner <name>] [-format text|csv|json] [-upload | -uri gs://...]\n"
}

func (c *itemsCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.year, "year", 0, "Year, the current year by default.")
	f.StringVar(&c.partner, "partner", "", "Partner name or alias.")
	c.out.setFlags(f)
}

func (c *itemsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := ledger.Args{}
	setYear(args, c.year)
	setString(args, "partner", c.partner)
	res, err := c.env.dispatch(ctx, ledger.OpGetOutstandingItems, args)
	if err != nil {
		return exit(err)
	}
	return exit(c.out.emit(ctx, c.env, res))
}

type ledgerCmd struct {
	env     *env
	year    string
	quarter string
	month   string
	columns string
	out     output
}

func (*ledgerCmd) Name() string     { return "ledger" }
func (*ledgerCmd) Synopsis() string { return "export the general ledger" }
func (*ledgerCmd) Usage() string {
	return `ledger [-year <yyyy>] [-quarter <Q1-Q4|last> | -month <yyyy-mm>] [-columns a,b,c] [-format text|csv|json] [-upload | -uri gs://...]

  Without -quarter or -month the whole ledger is exported. -quarter last
  selects the quarter before today and ignores -year.
`
}

func (c *ledgerCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.year, "year", "", "Year of -quarter, the current year by default.")
	f.StringVar(&c.quarter, "quarter", "", "Quarter Q1 to Q4, or last.")
	f.StringVar(&c.month, "month", "", "Month as yyyy-mm.")
	f.StringVar(&c.columns, "columns", "", "Comma separated columns, all by default.")
	c.out.setFlags(f)
}

func (c *ledgerCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := ledger.Args{}
	setString(args, "filter_by_year", c.year)
	setString(args, "filter_by_quarter", c.quarter)
	setString(args, "filter_by_month", c.month)
	setString(args, "columns", c.columns)
	res, err := c.env.dispatch(ctx, ledger.OpGetLedger, args)
	if err != nil {
		return exit(err)
	}
	return exit(c.out.emit(ctx, c.env, res))
}

type listCmd struct {
	env     *env
	year    int
	month   int
	partner string
	out     output
}

func (*listCmd) Name() string     { return "list" }
func (*listCmd) Synopsis() string { return "list up to 100 bookings of a year" }
func (*listCmd) Usage() string {
	return "list [-year <yyyy>] [-month <1-12>] [-partner <name>] [-format text|csv|json]\n"
}

func (c *listCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.year, "year", 0, "Year, the current year by default.")
	f.IntVar(&c.month, "month", 0, "Month 1-12.")
	f.StringVar(&c.partner, "partner", "", "Partner name or alias.")
	c.out.setFlags(f)
}

func (c *listCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := ledger.Args{}
	setYear(args, c.year)
	if c.month != 0 {
		args["month"] = c.month
	}
	setString(args, "partner", c.partner)
	res, err := c.env.dispatch(ctx, ledger.OpListTransactions, args)
	if err != nil {
		return exit(err)
	}
	return exit(c.out.emit(ctx, c.env, res))
}

// writableFields are the booking fields create and update accept as flags.
var writableFields = []struct{ name, usage string }{
	{ledger.ColumnDate, "Booking date, YYYY-MM-DD."},
	{ledger.ColumnReference, "Document reference."},
	{ledger.ColumnSource, "Source of the document."},
	{ledger.ColumnComment, "Free text."},
	{ledger.ColumnPartner, "Partner name or alias; empty detaches."},
	{ledger.ColumnDebit, "Debit account code."},
	{ledger.ColumnCredit, "Credit account code."},
	{ledger.ColumnDebitAmount, "Debit amount."},
	{ledger.ColumnCreditAmount, "Credit amount, defaults to the debit amount."},
	{ledger.ColumnDebitCurrency, "ISO 4217 code of the debit amount."},
	{ledger.ColumnCreditCurrency, "ISO 4217 code of the credit amount."},
	{ledger.ColumnDealValue, "Deal value."},
	{ledger.ColumnRate, "Exchange rate."},
}

func setFieldFlags(f *flag.FlagSet) {
	for _, field := range writableFields {
		f.String(field.name, "", field.usage)
	}
}

// visitedFields collects the field flags given on the command line, so an
// explicit -partner "" still reaches the ledger.
func visitedFields(f *flag.FlagSet) ledger.Args {
	known := make(map[string]bool, len(writableFields))
	for _, field := range writableFields {
		known[field.name] = true
	}
	args := ledger.Args{}
	f.Visit(func(fl *flag.Flag) {
		if known[fl.Name] {
			args[fl.Name] = fl.Value.String()
		}
	})
	return args
}

type createCmd struct {
	env *env
}

func (*createCmd) Name() string     { return "create" }
func (*createCmd) Synopsis() string { return "record a new booking" }
func (*createCmd) Usage() string {
	return `create -date <yyyy-mm-dd> -debit_amount <amount> [field flags]

  Outstanding amounts are not recomputed; run recalc afterwards.
`
}

func (c *createCmd) SetFlags(f *flag.FlagSet) { setFieldFlags(f) }

func (c *createCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	res, err := c.env.dispatch(ctx, ledger.OpCreateTransaction, visitedFields(f))
	if err != nil {
		return exit(err)
	}
	_, err = fmt.Fprintln(c.env.out, res.Message)
	return exit(err)
}

type updateCmd struct {
	env *env
}

func (*updateCmd) Name() string     { return "update" }
func (*updateCmd) Synopsis() string { return "change fields of an existing booking" }
func (*updateCmd) Usage() string {
	return `update [field flags] <id>

  Only the flags given are changed. Outstanding amounts are not recomputed.
`
}

func (c *updateCmd) SetFlags(f *flag.FlagSet) { setFieldFlags(f) }

func (c *updateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return exit(fmt.Errorf("update: exactly one transaction id expected: %w", errUsage))
	}
	args := visitedFields(f)
	args["id"] = f.Arg(0)
	res, err := c.env.dispatch(ctx, ledger.OpUpdateTransaction, args)
	if err != nil {
		return exit(err)
	}
	_, err = fmt.Fprintln(c.env.out, res.Message)
	return exit(err)
}

type partnerCmd struct {
	env     *env
	id      string
	name    string
	aliases string
}

func (*partnerCmd) Name() string     { return "partner" }
func (*partnerCmd) Synopsis() string { return "list partners, or register one" }
func (*partnerCmd) Usage() string {
	return `partner [-id <id> -name <name> [-aliases a,b]]

  Without flags, lists the registered partners. With -id and -name, inserts
  or replaces that partner.
`
}

func (c *partnerCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "id", "", "Partner id.")
	f.StringVar(&c.name, "name", "", "Canonical partner name.")
	f.StringVar(&c.aliases, "aliases", "", "Comma separated other names.")
}

func (c *partnerCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	l, err := c.env.openLedger(ctx)
	if err != nil {
		return exit(err)
	}

	if c.id == "" && c.name == "" {
		partners, err := l.Partners.ListPartners(ctx)
		if err != nil {
			return exit(err)
		}
		w := tabwriter.NewWriter(c.env.out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tOTHER NAMES")
		for _, p := range partners {
			fmt.Fprintf(w, "%s\t%s\t%s\n", p.ID, p.Name, strings.Join(p.OtherNames, ", "))
		}
		return exit(w.Flush())
	}

	if c.id == "" || c.name == "" {
		return exit(fmt.Errorf("partner: -id and -name go together: %w", errUsage))
	}
	p := &domain.Partner{ID: c.id, Name: c.name}
	for _, alias := range strings.Split(c.aliases, ",") {
		if alias = strings.TrimSpace(alias); alias != "" {
			p.OtherNames = append(p.OtherNames, alias)
		}
	}
	if err := l.Partners.PutPartner(ctx, p); err != nil {
		return exit(err)
	}
	_, err = fmt.Fprintf(c.env.out, "Partner %s saved\n", p.ID)
	return exit(err)
}
