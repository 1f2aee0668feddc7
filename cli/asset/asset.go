package asset

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/nspcc-dev/assetdb/cli/options"
	"github.com/nspcc-dev/assetdb/pkg/core/state"
	"github.com/urfave/cli"
)

var (
	idFlag = cli.Int64Flag{
		Name:  "id",
		Usage: "asset ID",
	}
	symbolFlag = cli.StringFlag{
		Name:  "symbol, s",
		Usage: "asset symbol",
	}
	amountFlag = cli.StringFlag{
		Name:  "amount",
		Usage: "decimal amount of shares (e.g. 12.5)",
	}
	prettyFlag = cli.BoolFlag{
		Name:  "pretty",
		Usage: "group thousands in the output",
	}
)

var errNoID = errors.New("ID is required, use --id")

// NewCommands returns asset and account commands.
func NewCommands() []cli.Command {
	withCommon := func(fs ...cli.Flag) []cli.Flag {
		return append(fs, options.Common...)
	}
	return []cli.Command{
		{
			Name:  "asset",
			Usage: "manage assets",
			Subcommands: []cli.Command{
				{
					Name:      "register",
					Usage:     "register new asset",
					UsageText: "register --id <id> --symbol <symbol> --name <name> --max-supply <amount> [--precision <p>] [--issuer <account>] [--tx-fee <amount>] [--market-fee <fee>] [--description <text>]",
					Action:    register,
					Flags: withCommon(idFlag, symbolFlag,
						cli.StringFlag{Name: "name", Usage: "asset name"},
						cli.StringFlag{Name: "description", Usage: "asset description"},
						cli.Int64Flag{Name: "precision", Value: 100000, Usage: "number of shares in one whole unit (power of ten)"},
						cli.StringFlag{Name: "max-supply", Usage: "maximum supply (decimal)"},
						cli.Int64Flag{Name: "issuer", Value: int64(state.MarketIssuerID), Usage: "issuer account ID (market issuer by default)"},
						cli.StringFlag{Name: "tx-fee", Value: "0", Usage: "transaction fee (decimal)"},
						cli.UintFlag{Name: "market-fee", Usage: "market fee in hundredths of a percent"},
					),
				},
				{
					Name:      "show",
					Usage:     "show asset by ID or symbol",
					UsageText: "show (--id <id> | --symbol <symbol>)",
					Action:    show,
					Flags:     withCommon(idFlag, symbolFlag),
				},
				{
					Name:   "list",
					Usage:  "list all assets",
					Action: list,
					Flags:  withCommon(prettyFlag),
				},
				{
					Name:      "issue",
					Usage:     "issue shares",
					UsageText: "issue --id <id> --amount <amount>",
					Action:    issue,
					Flags:     withCommon(idFlag, amountFlag),
				},
				{
					Name:      "burn",
					Usage:     "burn shares",
					UsageText: "burn --id <id> --amount <amount>",
					Action:    burn,
					Flags:     withCommon(idFlag, amountFlag),
				},
				{
					Name:      "rename",
					Usage:     "change asset symbol",
					UsageText: "rename --id <id> --symbol <symbol>",
					Action:    rename,
					Flags:     withCommon(idFlag, symbolFlag),
				},
				{
					Name:      "remove",
					Usage:     "remove asset",
					UsageText: "remove --id <id>",
					Action:    remove,
					Flags:     withCommon(idFlag),
				},
				{
					Name:      "parse",
					Usage:     "convert decimal amount to the number of shares",
					UsageText: "parse --id <id> <amount>",
					Action:    parse,
					Flags:     withCommon(idFlag),
				},
				{
					Name:      "format",
					Usage:     "convert the number of shares to decimal amount",
					UsageText: "format --id <id> [--pretty] <shares>",
					Action:    format,
					Flags:     withCommon(idFlag, prettyFlag),
				},
			},
		},
		{
			Name:  "account",
			Usage: "manage accounts known to the DB",
			Subcommands: []cli.Command{
				{
					Name:      "add",
					Usage:     "mark account as existing, so that it can issue assets",
					UsageText: "add --id <id>",
					Action:    addAccount,
					Flags:     withCommon(cli.Int64Flag{Name: "id", Usage: "account ID"}),
				},
			},
		},
	}
}

func getInt32(ctx *cli.Context, name string) (int32, error) {
	v := ctx.Int64(name)
	if v < math.MinInt32 || v > math.MaxInt32 {
		return 0, fmt.Errorf("--%s is out of range: %d", name, v)
	}
	return int32(v), nil
}

func getID(ctx *cli.Context) (state.AssetID, error) {
	if !ctx.IsSet("id") {
		return 0, errNoID
	}
	id, err := getInt32(ctx, "id")
	return state.AssetID(id), err
}

func printJSON(ctx *cli.Context, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	_, _ = fmt.Fprintln(ctx.App.Writer, string(b))
	return nil
}

func register(ctx *cli.Context) error {
	id, err := getID(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	issuer, err := getInt32(ctx, "issuer")
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	marketFee := ctx.Uint("market-fee")
	if marketFee > math.MaxUint16 {
		return cli.NewExitError(fmt.Errorf("--market-fee is out of range: %d", marketFee), 1)
	}
	if !ctx.IsSet("max-supply") {
		return cli.NewExitError(errors.New("--max-supply is required"), 1)
	}
	a := &state.Asset{
		ID:              id,
		Symbol:          ctx.String("symbol"),
		Name:            ctx.String("name"),
		Description:     ctx.String("description"),
		Precision:       ctx.Int64("precision"),
		MarketFee:       uint16(marketFee),
		IssuerAccountID: state.AccountID(issuer),
	}
	a.MaximumShareSupply = a.FromString(ctx.String("max-supply")).Amount
	a.TransactionFee = a.FromString(ctx.String("tx-fee")).Amount

	l, exitErr := options.GetLedger(ctx)
	if exitErr != nil {
		return exitErr
	}
	defer l.Close()

	if err := l.Registry.Register(a); err != nil {
		return cli.NewExitError(err, 1)
	}
	_, _ = fmt.Fprintf(ctx.App.Writer, "registered %s with ID %d\n", a.Symbol, a.ID)
	return nil
}

func show(ctx *cli.Context) error {
	if !ctx.IsSet("id") && !ctx.IsSet("symbol") {
		return cli.NewExitError(errors.New("either --id or --symbol is required"), 1)
	}
	var id state.AssetID
	if ctx.IsSet("id") {
		var err error
		id, err = getID(ctx)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
	}

	l, exitErr := options.GetLedger(ctx)
	if exitErr != nil {
		return exitErr
	}
	defer l.Close()

	var a *state.Asset
	var err error
	if ctx.IsSet("id") {
		a, err = l.Registry.GetByID(id)
	} else {
		a, err = l.Registry.GetBySymbol(ctx.String("symbol"))
	}
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	return printJSON(ctx, a)
}

func list(ctx *cli.Context) error {
	l, exitErr := options.GetLedger(ctx)
	if exitErr != nil {
		return exitErr
	}
	defer l.Close()

	assets, err := l.Registry.List()
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	toString := (*state.Asset).AmountToString
	if ctx.Bool("pretty") {
		toString = (*state.Asset).AmountToPrettyString
	}
	for _, a := range assets {
		_, _ = fmt.Fprintf(ctx.App.Writer, "%d\t%s\t%s / %s\n", a.ID, a.Symbol,
			toString(a, a.CurrentShareSupply, false), toString(a, a.MaximumShareSupply, true))
	}
	return nil
}

func changeSupply(ctx *cli.Context, burn bool) error {
	id, err := getID(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	if !ctx.IsSet("amount") {
		return cli.NewExitError(errors.New("--amount is required"), 1)
	}

	l, exitErr := options.GetLedger(ctx)
	if exitErr != nil {
		return exitErr
	}
	defer l.Close()

	a, err := l.Registry.GetByID(id)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	amount := a.FromString(ctx.String("amount")).Amount
	if burn {
		a, err = l.Registry.Burn(id, amount)
	} else {
		a, err = l.Registry.Issue(id, amount)
	}
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	_, _ = fmt.Fprintf(ctx.App.Writer, "supply: %s\n", a.AmountToString(a.CurrentShareSupply, true))
	return nil
}

func issue(ctx *cli.Context) error {
	return changeSupply(ctx, false)
}

func burn(ctx *cli.Context) error {
	return changeSupply(ctx, true)
}

func rename(ctx *cli.Context) error {
	id, err := getID(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	l, exitErr := options.GetLedger(ctx)
	if exitErr != nil {
		return exitErr
	}
	defer l.Close()

	a, err := l.Registry.Rename(id, ctx.String("symbol"))
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	_, _ = fmt.Fprintf(ctx.App.Writer, "asset %d is now %s\n", a.ID, a.Symbol)
	return nil
}

func remove(ctx *cli.Context) error {
	id, err := getID(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	l, exitErr := options.GetLedger(ctx)
	if exitErr != nil {
		return exitErr
	}
	defer l.Close()

	if err := l.Registry.Remove(id); err != nil {
		return cli.NewExitError(err, 1)
	}
	_, _ = fmt.Fprintf(ctx.App.Writer, "asset %d removed\n", id)
	return nil
}

// getAssetAndArg returns the asset referenced by --id and the only
// positional argument.
func getAssetAndArg(ctx *cli.Context) (*state.Asset, string, error) {
	id, err := getID(ctx)
	if err != nil {
		return nil, "", err
	}
	if ctx.NArg() != 1 {
		return nil, "", errors.New("exactly one argument is expected")
	}
	l, exitErr := options.GetLedger(ctx)
	if exitErr != nil {
		return nil, "", exitErr
	}
	defer l.Close()
	a, err := l.Registry.GetByID(id)
	return a, ctx.Args().First(), err
}

func parse(ctx *cli.Context) error {
	a, arg, err := getAssetAndArg(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	_, _ = fmt.Fprintln(ctx.App.Writer, a.FromString(arg).Amount)
	return nil
}

func format(ctx *cli.Context) error {
	a, arg, err := getAssetAndArg(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	shares, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return cli.NewExitError(fmt.Errorf("invalid number of shares: %w", err), 1)
	}
	if ctx.Bool("pretty") {
		_, _ = fmt.Fprintln(ctx.App.Writer, a.AmountToPrettyString(shares, true))
		return nil
	}
	_, _ = fmt.Fprintln(ctx.App.Writer, a.AmountToString(shares, true))
	return nil
}

func addAccount(ctx *cli.Context) error {
	id, err := getID(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	l, exitErr := options.GetLedger(ctx)
	if exitErr != nil {
		return exitErr
	}
	defer l.Close()

	if err := l.Registry.AddAccount(state.AccountID(id)); err != nil {
		return cli.NewExitError(err, 1)
	}
	_, _ = fmt.Fprintf(ctx.App.Writer, "account %d added\n", id)
	return nil
}
