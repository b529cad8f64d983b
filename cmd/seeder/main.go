package main

import (
	"bufio"
	"context"
	"flag"
	"iter"
	"log/slog"
	"os"

	"github.com/veritom/knowbase"
	"github.com/veritom/knowbase/core"
	"github.com/veritom/knowbase/ingest"
)

var issues = []string{
	"Outlook keeps prompting for credentials after the password change.",
	"The VPN client disconnects every time the laptop sleeps.",
	"Shared drive mappings disappear after every reboot.",
	"The build server runs out of disk space during nightly jobs.",
	"Printer on the third floor prints blank pages from Chrome only.",
	"Two-factor codes arrive ten minutes late on the new carrier.",
	"The staging database refuses connections after the certificate rotation.",
	"Wi-Fi drops in the east wing conference rooms during meetings.",
	"The backup job reports success but the restore point is empty.",
	"Login to the HR portal loops back to the SSO page.",
	"The monitoring dashboard shows stale metrics since the upgrade.",
	"Calendar invites sent to the support alias bounce with a relay error.",
	"The license server rejects checkouts when more than fifty users are active.",
	"File uploads over 100 MB fail through the reverse proxy.",
	"The CI pipeline hangs on the integration test stage every Monday.",
	"New laptops cannot reach the imaging server over PXE boot.",
	"The ticketing system duplicates every email reply as a new ticket.",
	"DNS lookups for the internal wiki time out from the guest network.",
	"The payroll export job truncates names with non-ASCII characters.",
	"Screen sharing freezes after exactly ten minutes in video calls.",
	"The nightly sync to the data warehouse skips the orders table.",
	"Badge readers on the fifth floor stopped logging entries last week.",
	"The container registry returns 401 for the deployment service account.",
	"Password resets for contractors expire before the email arrives.",
	"The phone system drops transferred calls between departments.",
	"The search index rebuild consumes all memory on the small nodes.",
	"Automatic updates reboot kiosk machines during business hours.",
	"The SFTP drop folder silently rejects files with spaces in names.",
	"Session cookies are lost when the load balancer fails over.",
	"The invoice PDF generator renders the logo as a black box.",
}

var seedFileName = flag.String("src", "", "file of seed data")

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
	flag.Parse()
}

// linesFromFile returns an iterator over lines in a file.
func linesFromFile(filename string) (iter.Seq[string], error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	return func(yield func(string) bool) {
		defer f.Close()
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			if !yield(scanner.Text()) {
				return
			}
		}
	}, nil
}

// linesFromSlice returns an iterator over a slice of strings.
func linesFromSlice(lines []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, line := range lines {
			if !yield(line) {
				return
			}
		}
	}
}

// ingestBatched reads from a source iterator and ingests documents in batches.
func ingestBatched(ctx context.Context, pipeline *ingest.Pipeline, source iter.Seq[string], batchSize int) error {
	collection := core.SourceTypeIssue.Collection()
	batch := make([]ingest.Item, 0, batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		results, err := pipeline.Ingest(ctx, collection, batch)
		if err != nil {
			return err
		}
		for _, r := range results {
			if r.Err != nil {
				slog.Warn("document skipped", "err", r.Err)
			}
		}
		batch = batch[:0]
		return nil
	}

	for line := range source {
		batch = append(batch, ingest.Item{
			SourceType: core.SourceTypeIssue,
			Content:    line,
		})
		if len(batch) == batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}

	return flush()
}

func main() {
	kb, err := knowbase.Open("./knowbase_db")
	if err != nil {
		panic(err)
	}
	defer kb.Close()

	pipeline, err := kb.NewPipeline()
	if err != nil {
		panic(err)
	}
	defer pipeline.Release()

	ctx := context.Background()

	var source iter.Seq[string]
	if seedFileName != nil && *seedFileName != "" {
		source, err = linesFromFile(*seedFileName)
		if err != nil {
			panic(err)
		}
	} else {
		source = linesFromSlice(issues)
	}

	if err := ingestBatched(ctx, pipeline, source, 5); err != nil {
		panic(err)
	}
}
