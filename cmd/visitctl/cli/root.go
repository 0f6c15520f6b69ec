package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dalemusser/visitdesk/internal/app/system/timeouts"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

var (
	mongoURI string
	database string
	timeZone string
	verbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "visitctl",
	Short: "visitctl - inspect and maintain a VisitDesk database",
	Long: `visitctl talks to the same MongoDB database as the VisitDesk server.
Connection settings default to the server's VISITDESK_* environment
variables so both agree on the database and on what "today" means.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&mongoURI, "mongo-uri", envOr("VISITDESK_MONGO_URI", "mongodb://localhost:27017"), "MongoDB connection URI")
	rootCmd.PersistentFlags().StringVar(&database, "database", envOr("VISITDESK_MONGO_DATABASE", "visitdesk"), "MongoDB database name")
	rootCmd.PersistentFlags().StringVar(&timeZone, "tz", envOr("VISITDESK_TIME_ZONE", "Local"), "IANA zone that defines today")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output")

	rootCmd.AddCommand(countsCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(checkoutCmd)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func newLogger() *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	l, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

func location() (*time.Location, error) {
	if timeZone == "" || timeZone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(timeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid --tz %q: %w", timeZone, err)
	}
	return loc, nil
}

// connect opens the database; the returned func disconnects.
func connect(ctx context.Context) (*mongo.Database, func(), error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI).SetAppName("visitctl"))
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongo: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeouts.Ping())
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("ping mongo at %s: %w", mongoURI, err)
	}
	closeFn := func() { _ = client.Disconnect(context.Background()) }
	return client.Database(database), closeFn, nil
}

// parseDay reads a YYYY-MM-DD flag in loc; blank means today.
func parseDay(s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return time.Now().In(loc), nil
	}
	d, err := time.ParseInLocation("2006-01-02", s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
	}
	return d.Add(12 * time.Hour), nil
}
