package action_test

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/ethereum/go-ethereum/common"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"

	"github.com/lisanmuaddib/base-minter/pkg/action"
)

var errTerminal = errors.New("terminal")

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

var _ = Describe("Runner", func() {
	var (
		ctx    context.Context
		runner *action.Runner
		calls  int
	)

	BeforeEach(func() {
		ctx = context.Background()
		calls = 0
		runner = action.NewRunner(quietLogger(), action.Policy{
			MaxAttempts: 3,
			BackoffBase: time.Millisecond,
			NonRetryable: func(err error) bool {
				return errors.Is(err, errTerminal)
			},
		})
	})

	It("returns the first successful result", func() {
		res, err := runner.Run(ctx, "Mint NFT", func(ctx context.Context) (action.Result, error) {
			calls++
			return action.Success("Base", "Mint NFT", common.Hash{1}), nil
		})

		Expect(err).NotTo(HaveOccurred())
		Expect(res.Status).To(Equal(action.StatusSuccess))
		Expect(calls).To(Equal(1))
	})

	It("retries transient failures until one succeeds", func() {
		res, err := runner.Run(ctx, "Mint NFT", func(ctx context.Context) (action.Result, error) {
			calls++
			if calls < 3 {
				return action.Result{}, errors.New("rpc timeout")
			}
			return action.Already("Mint NFT"), nil
		})

		Expect(err).NotTo(HaveOccurred())
		Expect(res.Status).To(Equal(action.StatusAlready))
		Expect(calls).To(Equal(3))
	})

	It("wraps the last failure once attempts run out", func() {
		_, err := runner.Run(ctx, "Bridge", func(ctx context.Context) (action.Result, error) {
			calls++
			return action.Result{}, errors.New("rpc timeout")
		})

		Expect(calls).To(Equal(3))
		var failed *action.FailedError
		Expect(errors.As(err, &failed)).To(BeTrue())
		Expect(failed.Label).To(Equal("Bridge"))
		Expect(err.Error()).To(Equal("Bridge: rpc timeout"))
	})

	It("never retries a non-retryable failure", func() {
		_, err := runner.Run(ctx, "Mint NFT", func(ctx context.Context) (action.Result, error) {
			calls++
			return action.Result{}, errTerminal
		})

		Expect(calls).To(Equal(1))
		Expect(err).To(MatchError(errTerminal))
		var failed *action.FailedError
		Expect(errors.As(err, &failed)).To(BeFalse())
	})

	It("never retries a pending result", func() {
		res, err := runner.Run(ctx, "Mint NFT", func(ctx context.Context) (action.Result, error) {
			calls++
			return action.Pending("Base", "Mint NFT", common.Hash{2}), nil
		})

		Expect(err).NotTo(HaveOccurred())
		Expect(res.Status).To(Equal(action.StatusPending))
		Expect(calls).To(Equal(1))
	})

	It("does not relabel a failure from a nested action", func() {
		_, err := runner.Run(ctx, "Mint NFT", func(ctx context.Context) (action.Result, error) {
			calls++
			return action.Result{}, &action.FailedError{Label: "Bridge", Err: errors.New("reverted")}
		})

		var failed *action.FailedError
		Expect(errors.As(err, &failed)).To(BeTrue())
		Expect(failed.Label).To(Equal("Mint NFT"))
		Expect(errors.Unwrap(failed)).To(HaveOccurred())
		Expect(err.Error()).To(Equal("Mint NFT: Bridge: reverted"))
	})

	It("stops retrying when the context is cancelled", func() {
		cancelled, cancel := context.WithCancel(ctx)

		_, err := runner.Run(cancelled, "Mint NFT", func(ctx context.Context) (action.Result, error) {
			calls++
			cancel()
			return action.Result{}, ctx.Err()
		})

		Expect(calls).To(Equal(1))
		Expect(errors.Is(err, context.Canceled)).To(BeTrue())
	})

	It("applies the default policy", func() {
		policy := action.DefaultPolicy(nil)
		Expect(policy.MaxAttempts).To(Equal(uint(5)))
		Expect(policy.BackoffBase).To(Equal(1500 * time.Millisecond))
	})
})

var _ = Describe("Result", func() {
	DescribeTable("counts as completed",
		func(res action.Result, completed bool) {
			Expect(res.Completed()).To(Equal(completed))
		},
		Entry("already", action.Already("Mint NFT"), true),
		Entry("success", action.Success("Base", "Mint NFT", common.Hash{1}), true),
		Entry("pending", action.Pending("Base", "Mint NFT", common.Hash{1}), true),
		Entry("failed", action.Failed("Mint NFT", errTerminal), false),
	)

	It("exposes pending details only for pending results", func() {
		_, ok := action.Success("Base", "Mint NFT", common.Hash{1}).PendingRecord()
		Expect(ok).To(BeFalse())

		record, ok := action.Pending("Ethereum", "Bridge", common.Hash{3}).PendingRecord()
		Expect(ok).To(BeTrue())
		Expect(record.String()).To(ContainSubstring("Bridge, chain = Ethereum"))
	})

	It("names statuses", func() {
		Expect(action.StatusPending.String()).To(Equal("pending"))
		Expect(action.Status(42).String()).To(Equal("status(42)"))
	})
})
