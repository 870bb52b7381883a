package logging_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"

	"github.com/lisanmuaddib/base-minter/pkg/logging"
)

var _ = Describe("ColoredJSONFormatter", func() {
	var formatter *logging.ColoredJSONFormatter

	BeforeEach(func() {
		formatter = logging.NewColoredJSONFormatter()
		formatter.DisableColors = true
	})

	format := func(fields logrus.Fields, msg string) string {
		entry := &logrus.Entry{
			Logger:  logrus.New(),
			Data:    fields,
			Time:    time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC),
			Level:   logrus.InfoLevel,
			Message: msg,
		}
		out, err := formatter.Format(entry)
		Expect(err).NotTo(HaveOccurred())
		return string(out)
	}

	It("prints time, level and message first", func() {
		line := format(logrus.Fields{}, "Tx was sent")
		Expect(line).To(HavePrefix("2026-10-16T12:00:00Z INFO    Tx was sent"))
		Expect(line).To(HaveSuffix("\n"))
	})

	It("orders wallet and transaction fields before the rest", func() {
		line := format(logrus.Fields{
			"amount":  "0.0035",
			"error":   errors.New("boom"),
			"tx_hash": "0xabc",
			"chain":   "Base",
			"wallet":  "farm-01",
		}, "Bridging ETH")

		wallet := strings.Index(line, "wallet=")
		chain := strings.Index(line, "chain=")
		tx := strings.Index(line, "tx_hash=")
		errIdx := strings.Index(line, "error=")
		amount := strings.Index(line, "amount=")

		Expect(wallet).To(BeNumerically("<", chain))
		Expect(chain).To(BeNumerically("<", tx))
		Expect(tx).To(BeNumerically("<", errIdx))
		Expect(errIdx).To(BeNumerically("<", amount))
		Expect(line).To(ContainSubstring(`error="boom"`))
	})

	It("encodes non-string values as JSON", func() {
		line := format(logrus.Fields{"attempt": 2, "labels": []string{"a"}}, "retry")
		Expect(line).To(ContainSubstring("attempt=2"))
		Expect(line).To(ContainSubstring(`labels=["a"]`))
	})

	It("prints Stringer values as quoted text", func() {
		line := format(logrus.Fields{"wait": 1500 * time.Millisecond}, "Waiting")
		Expect(line).To(ContainSubstring(`wait="1.5s"`))
	})
})

var _ = Describe("New", func() {
	It("writes JSON when asked", func() {
		buf := &bytes.Buffer{}
		log := logging.New("debug", "json", buf)
		log.WithField("wallet", "farm-01").Debug("Retrieved balance")

		var decoded map[string]interface{}
		Expect(json.Unmarshal(buf.Bytes(), &decoded)).To(Succeed())
		Expect(decoded).To(HaveKeyWithValue("wallet", "farm-01"))
		Expect(log.GetLevel()).To(Equal(logrus.DebugLevel))
	})

	It("falls back to info on an unknown level", func() {
		buf := &bytes.Buffer{}
		log := logging.New("loud", "", buf)

		Expect(log.GetLevel()).To(Equal(logrus.InfoLevel))
		Expect(buf.String()).To(ContainSubstring("Invalid log level"))
		Expect(log.Formatter).To(BeAssignableToTypeOf(&logging.ColoredJSONFormatter{}))
	})
})
