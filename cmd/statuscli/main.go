// Package main provides a command line client for the status API.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"

	"github.com/osa030/19tube/internal/api/status"
	"github.com/osa030/19tube/internal/app/notification"
)

var (
	app     = kingpin.New("19tube-statuscli", "19tube status client")
	server  = app.Flag("server", "Status server address").Default("http://localhost:8080").Envar("TUBE_STATUS_SERVER").String()
	timeout = app.Flag("timeout", "Request timeout").Default("5s").Duration()

	// queue command
	queueCmd = app.Command("queue", "Show the current queue").Default()

	// history command
	historyCmd = app.Command("history", "Show recent announcements")

	// health command
	healthCmd = app.Command("health", "Check that the server is up")
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	client := status.NewClient(*server, nil)
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var err error
	switch command {
	case queueCmd.FullCommand():
		var q *status.Queue
		if q, err = client.Queue(ctx); err == nil {
			printQueue(os.Stdout, q)
		}
	case historyCmd.FullCommand():
		var items []notification.Notification
		if items, err = client.History(ctx); err == nil {
			printHistory(os.Stdout, items)
		}
	case healthCmd.FullCommand():
		if err = client.Health(ctx); err == nil {
			fmt.Println("ok")
		}
	}

	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func printQueue(w io.Writer, q *status.Queue) {
	fmt.Fprintln(w, "\n=== CURRENT QUEUE ===")
	fmt.Fprintf(w, "State: %s\n", q.State)

	if q.Current != nil {
		fmt.Fprintf(w, "\nCurrently Playing:\n")
		printItem(w, *q.Current)
		if q.Stopping {
			fmt.Fprintln(w, "  (skipping)")
		}
	} else {
		fmt.Fprintln(w, "\nNothing currently playing")
	}

	fmt.Fprintf(w, "\nPending: %d\n", len(q.Pending))
	for _, it := range q.Pending {
		printItem(w, it)
	}
	fmt.Fprintln(w)
}

func printItem(w io.Writer, it status.Item) {
	title := it.Title
	if title == "" {
		title = "-"
	}
	fmt.Fprintf(w, "  #%d %s\n", it.Seq, title)
	fmt.Fprintf(w, "     URL: %s\n", it.URL)
	if it.DurationSec > 0 {
		fmt.Fprintf(w, "     Duration: %s\n", (time.Duration(it.DurationSec) * time.Second).String())
	}
	fmt.Fprintf(w, "     Requested by: %s\n", it.Submitter)
}

func printHistory(w io.Writer, items []notification.Notification) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No announcements yet")
		return
	}
	for _, n := range items {
		fmt.Fprintf(w, "%4d  %s  %-13s %s\n", n.SequenceNo, n.At.Format(time.TimeOnly), n.Type, n.Text)
	}
}
