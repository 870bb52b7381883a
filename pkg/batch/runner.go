package batch

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"

	"github.com/lisanmuaddib/base-minter/pkg/action"
	"github.com/lisanmuaddib/base-minter/pkg/mint"
	"github.com/lisanmuaddib/base-minter/pkg/pace"
	"github.com/lisanmuaddib/base-minter/pkg/report"
	"github.com/lisanmuaddib/base-minter/pkg/wallet"
)

// Opener resolves chain handles for a wallet.
type Opener interface {
	Open(ctx context.Context, w wallet.Wallet, proxy string, chains ...wallet.ChainName) (*wallet.Account, error)
}

// Minter runs the mint flow for one target.
type Minter interface {
	Mint(ctx context.Context, acc *wallet.Account, target mint.Target) (action.Result, error)
}

// Recorder receives outcomes as they happen and each wallet's labels once it is done.
type Recorder interface {
	RecordOutcome(ctx context.Context, o report.Outcome) error
	RecordWallet(ctx context.Context, runID, address string, labels []string) error
}

// Config holds pacing and scope of a batch run.
type Config struct {
	RunID string

	// Chains are opened for every wallet before its first target
	Chains []wallet.ChainName

	NextTxMin     time.Duration
	NextTxMax     time.Duration
	NextWalletMin time.Duration
	NextWalletMax time.Duration

	// Shuffle randomizes wallet order and per-wallet target order
	Shuffle bool
}

// Runner processes wallets sequentially: every target of a wallet is handled before
// the next wallet starts, so one account never has two transactions in flight.
type Runner struct {
	cfg       Config
	opener    Opener
	minter    Minter
	targets   []mint.Target
	stats     *report.Stats
	writer    *report.Writer
	recorders []Recorder
	pacer     *pace.Pacer
	log       *logrus.Logger
	out       io.Writer
}

// Option customizes a Runner.
type Option func(*Runner)

// WithRecorder adds an outcome recorder.
func WithRecorder(rec Recorder) Option {
	return func(r *Runner) {
		r.recorders = append(r.recorders, rec)
	}
}

// WithOutput sets where progress banners are printed.
func WithOutput(w io.Writer) Option {
	return func(r *Runner) {
		r.out = w
	}
}

// NewRunner creates a batch runner.
func NewRunner(
	log *logrus.Logger,
	cfg Config,
	opener Opener,
	minter Minter,
	targets []mint.Target,
	writer *report.Writer,
	pacer *pace.Pacer,
	opts ...Option,
) *Runner {
	r := &Runner{
		cfg:     cfg,
		opener:  opener,
		minter:  minter,
		targets: append([]mint.Target(nil), targets...),
		stats:   report.NewStats(),
		writer:  writer,
		pacer:   pacer,
		log:     log,
		out:     os.Stdout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Stats returns the run's progress.
func (r *Runner) Stats() *report.Stats {
	return r.stats
}

type queued struct {
	entry  Entry
	wallet wallet.Wallet
	err    error
}

// Run processes entries. Per-wallet and per-target failures are logged and skipped;
// only context cancellation stops the batch early.
func (r *Runner) Run(ctx context.Context, entries []Entry) error {
	queue := make([]queued, len(entries))
	for i, e := range entries {
		w, err := wallet.ParseWallet(e.Credential)
		queue[i] = queued{entry: e, wallet: w, err: err}
		if err == nil {
			r.stats.AddWallet(w.Address().Hex())
		}
	}

	if r.cfg.Shuffle {
		r.pacer.Shuffle(len(queue), func(i, j int) { queue[i], queue[j] = queue[j], queue[i] })
	}

	done := 0
	for i, q := range queue {
		if err := ctx.Err(); err != nil {
			return err
		}

		if done != 0 {
			if err := r.waitNextWallet(ctx, done, len(queue)); err != nil {
				return err
			}
		}

		if q.err != nil {
			r.log.WithError(q.err).WithField("position", i+1).Error("Failed to init")
			continue
		}

		if err := r.runWallet(ctx, q); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.log.WithError(err).WithField("wallet", q.wallet.Name()).Error("Failed to init")
			continue
		}
		done++
	}

	r.banner("Finished")
	return nil
}

// runWallet handles every target of one wallet and flushes the report. It returns
// an error only when the wallet could not be initialised.
func (r *Runner) runWallet(ctx context.Context, q queued) error {
	address := q.wallet.Address().Hex()
	r.log.WithField("wallet", q.wallet.Name()).Info(address)

	acc, err := r.opener.Open(ctx, q.wallet, q.entry.Proxy, r.cfg.Chains...)
	if err != nil {
		return err
	}
	defer acc.Close()

	targets := append([]mint.Target(nil), r.targets...)
	if r.cfg.Shuffle {
		r.pacer.Shuffle(len(targets), func(i, j int) { targets[i], targets[j] = targets[j], targets[i] })
	}

	for _, target := range targets {
		if ctx.Err() != nil {
			break
		}

		entry := r.log.WithFields(logrus.Fields{
			"wallet": q.wallet.Name(),
			"target": target.Name,
		})
		entry.Infof("%s: Starting mint", target.Name)

		res, err := r.minter.Mint(ctx, acc, target)
		r.record(ctx, q.wallet, target, res, err)

		if err != nil {
			entry.WithError(err).Errorf("%s: Mint failed", target.Name)
			continue
		}

		switch res.Status {
		case action.StatusSuccess:
			entry.Infof("%s: Successfully minted", target.Name)
		case action.StatusAlready:
			entry.Infof("%s: Was already minted", target.Name)
		case action.StatusPending:
			entry.Infof("%s: Mint tx in pending", target.Name)
		}
		if res.Completed() {
			r.stats.MarkDone(address, target.Name)
		}

		if _, err := r.pacer.Between(ctx, r.cfg.NextTxMin, r.cfg.NextTxMax); err != nil {
			break
		}
	}

	if err := r.writer.Write(r.stats); err != nil {
		r.log.WithError(err).Error("Failed to write report")
	}
	for _, rec := range r.recorders {
		if err := rec.RecordWallet(ctx, r.cfg.RunID, address, r.stats.Labels(address)); err != nil {
			r.log.WithError(err).WithField("wallet", q.wallet.Name()).Warn("Failed to record wallet progress")
		}
	}
	return nil
}

func (r *Runner) record(ctx context.Context, w wallet.Wallet, target mint.Target, res action.Result, err error) {
	if len(r.recorders) == 0 {
		return
	}

	o := report.Outcome{
		RunID:   r.cfg.RunID,
		Address: w.Address().Hex(),
		Wallet:  w.Name(),
		Target:  target.Name,
		Status:  res.Status,
		At:      time.Now().UTC(),
	}
	if res.HasTx() {
		o.TxHash = res.TxHash.Hex()
	}
	if err != nil {
		o.Status = action.StatusFailed
		o.Error = err.Error()
	}

	for _, rec := range r.recorders {
		if err := rec.RecordOutcome(ctx, o); err != nil {
			r.log.WithError(err).WithField("wallet", w.Name()).Warn("Failed to record outcome")
		}
	}
}

func (r *Runner) waitNextWallet(ctx context.Context, done, total int) error {
	wait := r.pacer.Duration(r.cfg.NextWalletMin, r.cfg.NextWalletMax)

	r.banner(fmt.Sprintf("Done: %d/%d", done, total))
	cyan := color.New(color.FgCyan)
	magenta := color.New(color.FgMagenta)
	cyan.Fprint(r.out, "# ")
	magenta.Fprintf(r.out, "Waiting for next run for %.2f minutes", wait.Minutes())
	cyan.Fprintln(r.out, " #")
	cyan.Fprintln(r.out, strings.Repeat("#", 41))

	return r.pacer.Sleep(ctx, wait)
}

func (r *Runner) banner(msg string) {
	cyan := color.New(color.FgCyan)
	magenta := color.New(color.FgMagenta)

	cyan.Fprintln(r.out)
	cyan.Fprintln(r.out, strings.Repeat("#", 41))
	cyan.Fprint(r.out, "#")
	magenta.Fprint(r.out, center(msg, 39))
	cyan.Fprintln(r.out, "#")
	cyan.Fprintln(r.out, strings.Repeat("#", 41))
}

func center(s string, width int) string {
	if len(s) >= width {
		return s
	}
	left := (width - len(s)) / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", width-len(s)-left)
}
