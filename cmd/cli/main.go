package main

import (
	"encoding/json"
	"fmt"
	"github.com/ZilDuck/zilliqa-marketplace/internal/api"
	"github.com/ZilDuck/zilliqa-marketplace/internal/client"
	"github.com/ZilDuck/zilliqa-marketplace/internal/config"
	"github.com/ZilDuck/zilliqa-marketplace/internal/config/di"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"os"
	"strings"
	"time"
)

var marketplace client.Client

func main() {
	config.Init("cli")

	container, err := di.NewContainer()
	if err != nil {
		zap.L().With(zap.Error(err)).Fatal("Failed to build container")
	}
	marketplace = container.GetClient()

	app := &cli.App{
		Name:  "marketplace",
		Usage: "operate the rental marketplace through its api",
		Commands: []*cli.Command{
			{
				Name:   "count",
				Usage:  "Number of listings ever added",
				Action: count,
			},
			{
				Name:      "listing",
				Usage:     "Show one listing, or a page of listings",
				ArgsUsage: "[id]",
				Action:    listing,
				Flags: []cli.Flag{
					&cli.Uint64Flag{Name: "offset", Value: 0, Usage: "first listing of the page"},
					&cli.Uint64Flag{Name: "limit", Value: 20, Usage: "page size, 0 for all"},
				},
			},
			{
				Name:      "tokens",
				Usage:     "Show the mint and transfer history of a listing's token",
				ArgsUsage: "<id>",
				Action:    tokens,
			},
			{
				Name:   "add",
				Usage:  "Add a listing",
				Action: add,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Required: true, Usage: "listing name"},
					&cli.Uint64Flag{Name: "price", Required: true, Usage: "price in the smallest unit"},
					&cli.BoolFlag{Name: "sale", Usage: "offer for sale"},
					&cli.BoolFlag{Name: "rent", Usage: "offer for rent"},
					&cli.TimestampFlag{Name: "expires", Layout: time.RFC3339, Usage: "rental expiration, defaults to the marketplace default"},
				},
			},
			{
				Name:      "buy",
				Usage:     "Buy a listing",
				ArgsUsage: "<id>",
				Action:    buy,
				Flags:     paymentFlags(),
			},
			{
				Name:      "rent",
				Usage:     "Rent a listing",
				ArgsUsage: "<id>",
				Action:    rent,
				Flags:     paymentFlags(),
			},
			{
				Name:   "config",
				Usage:  "Show the marketplace configuration",
				Action: showConfig,
			},
			{
				Name:      "set",
				Usage:     fmt.Sprintf("Change a setting (%s)", strings.Join(api.Settings, ", ")),
				ArgsUsage: "<setting> <value>",
				Action:    set,
			},
			{
				Name:      "withdraw",
				Usage:     "Withdraw funds from the marketplace to the admin",
				ArgsUsage: "<amount>",
				Action:    withdraw,
			},
			{
				Name:      "deposit",
				Usage:     "Credit funds to your own account",
				ArgsUsage: "<amount>",
				Action:    deposit,
			},
			{
				Name:      "referrals",
				Usage:     "Show how many referrals an identity has made",
				ArgsUsage: "<identity>",
				Action:    referrals,
			},
			{
				Name:   "balance",
				Usage:  "Show the marketplace balance",
				Action: balance,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		zap.L().With(zap.Error(err)).Fatal("Command failed")
	}
}

func paymentFlags() []cli.Flag {
	return []cli.Flag{
		&cli.Uint64Flag{Name: "amount", Required: true, Usage: "amount paid"},
		&cli.StringFlag{Name: "referrer", Value: "", Usage: "identity that referred you"},
	}
}

func count(c *cli.Context) error {
	n, err := marketplace.ListingCount(c.Context)
	if err != nil {
		return err
	}

	return output(api.CountResponse{Count: n})
}

func tokens(c *cli.Context) error {
	id, err := uint64Arg(c, 0)
	if err != nil {
		return err
	}

	actions, err := marketplace.TokenHistory(c.Context, id)
	if err != nil {
		return err
	}

	return output(api.TokenHistoryResponse{Actions: actions})
}

func listing(c *cli.Context) error {
	if c.Args().Present() {
		id, err := uint64Arg(c, 0)
		if err != nil {
			return err
		}
		l, err := marketplace.Listing(c.Context, id)
		if err != nil {
			return err
		}
		return output(l)
	}

	page, err := marketplace.Listings(c.Context, c.Uint64("offset"), c.Uint64("limit"))
	if err != nil {
		return err
	}

	return output(page)
}

func add(c *cli.Context) error {
	req := api.AddListingRequest{
		Name:           c.String("name"),
		Price:          c.Uint64("price"),
		ForSale:        c.Bool("sale"),
		ForRent:        c.Bool("rent"),
		ExpirationTime: c.Timestamp("expires"),
	}

	id, err := marketplace.AddListing(c.Context, req)
	if err != nil {
		return err
	}

	return output(api.AddListingResponse{Id: id})
}

func buy(c *cli.Context) error {
	id, err := uint64Arg(c, 0)
	if err != nil {
		return err
	}

	l, err := marketplace.BuyListing(c.Context, id, c.Uint64("amount"), c.String("referrer"))
	if err != nil {
		return err
	}

	return output(l)
}

func rent(c *cli.Context) error {
	id, err := uint64Arg(c, 0)
	if err != nil {
		return err
	}

	l, err := marketplace.RentListing(c.Context, id, c.Uint64("amount"), c.String("referrer"))
	if err != nil {
		return err
	}

	return output(l)
}

func showConfig(c *cli.Context) error {
	cfg, err := marketplace.Config(c.Context)
	if err != nil {
		return err
	}

	return output(cfg)
}

func set(c *cli.Context) error {
	if c.NArg() != 2 {
		return cli.Exit("usage: set <setting> <value>", 1)
	}

	cfg, err := marketplace.SetConfig(c.Context, c.Args().Get(0), c.Args().Get(1))
	if err != nil {
		return err
	}

	return output(cfg)
}

func withdraw(c *cli.Context) error {
	amount, err := uint64Arg(c, 0)
	if err != nil {
		return err
	}

	remaining, err := marketplace.Withdraw(c.Context, amount)
	if err != nil {
		return err
	}

	return output(api.BalanceResponse{Balance: remaining})
}

func deposit(c *cli.Context) error {
	amount, err := uint64Arg(c, 0)
	if err != nil {
		return err
	}

	total, err := marketplace.Deposit(c.Context, amount)
	if err != nil {
		return err
	}

	return output(api.BalanceResponse{Balance: total})
}

func referrals(c *cli.Context) error {
	if !c.Args().Present() {
		return cli.Exit("usage: referrals <identity>", 1)
	}

	referral, err := marketplace.Referrals(c.Context, api.NormalizeIdentity(c.Args().First()))
	if err != nil {
		return err
	}

	return output(referral)
}

func balance(c *cli.Context) error {
	b, err := marketplace.Balance(c.Context)
	if err != nil {
		return err
	}

	return output(api.BalanceResponse{Balance: b})
}

func uint64Arg(c *cli.Context, n int) (uint64, error) {
	var v uint64
	if _, err := fmt.Sscan(c.Args().Get(n), &v); err != nil {
		return 0, cli.Exit(fmt.Sprintf("argument %d must be a positive number", n+1), 1)
	}

	return v, nil
}

func output(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))

	return nil
}
