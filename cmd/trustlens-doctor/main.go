// Command trustlens-doctor probes database connectivity: DNS resolution,
// then an authenticated connection and a trivial query, falling back to a
// pooler URL when the direct connection fails.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"os"
	"time"

	_ "github.com/lib/pq"
	"github.com/urfave/cli/v2"

	"github.com/trustlens/trustlens/dsn"
)

func main() {
	app := &cli.App{
		Name:  "trustlens-doctor",
		Usage: "diagnose database connectivity",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "direct database connection `URL`",
				EnvVars: []string{"DATABASE_URL"},
			},
			&cli.StringFlag{
				Name:    "pooler-url",
				Usage:   "connection pooler `URL` tried when the direct connection fails",
				EnvVars: []string{"DATABASE_POOLER_URL"},
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "per-attempt connection timeout",
				Value: 10 * time.Second,
			},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	directURL := c.String("database-url")
	poolerURL := c.String("pooler-url")
	timeout := c.Duration("timeout")

	if directURL == "" {
		return cli.Exit("DATABASE_URL is not set", 1)
	}

	fmt.Println("== TrustLens connection doctor ==")

	if err := tryConnect(c.Context, "direct", directURL, timeout); err == nil {
		fmt.Println("OK: direct connection works")
		return nil
	} else {
		fmt.Printf("FAIL: direct connection: %v\n", err)
	}

	if poolerURL != "" {
		fmt.Println("retrying via connection pooler...")
		if err := tryConnect(c.Context, "pooler", poolerURL, timeout); err == nil {
			fmt.Println("OK: pooler connection works")
			fmt.Println("hint: the direct port appears blocked; use the pooler URL in your config")
			return nil
		} else {
			fmt.Printf("FAIL: pooler connection: %v\n", err)
		}
	}

	printChecklist()
	return cli.Exit("no connection attempt succeeded", 1)
}

// tryConnect resolves the host, opens a connection and runs a trivial query.
func tryConnect(ctx context.Context, label, rawurl string, timeout time.Duration) error {
	rawurl, err := dsn.EnsureSSLMode(rawurl)
	if err != nil {
		return err
	}
	fmt.Printf("[%s] connecting to %s\n", label, dsn.MaskPassword(rawurl))

	host, err := dsn.Hostname(rawurl)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	addrs, err := net.DefaultResolver.LookupHost(ctx, host)
	if err != nil {
		return fmt.Errorf("DNS lookup for %s failed: %w", host, err)
	}
	fmt.Printf("[%s] %s resolves to %v\n", label, host, addrs)

	db, err := sql.Open("postgres", rawurl)
	if err != nil {
		return err
	}
	defer db.Close()

	var version string
	if err := db.QueryRowContext(ctx, "SELECT version()").Scan(&version); err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	fmt.Printf("[%s] server: %s\n", label, version)
	return nil
}

func printChecklist() {
	fmt.Println(`
Things to check:
  1. Is the database up and reachable from this network?
  2. Does the URL carry the right user, password and database name?
  3. Is outbound traffic on the database port allowed by your firewall?
  4. Does the provider require the pooler URL instead of the direct port?
  5. Does the server require sslmode=require (added automatically if absent)?`)
}
