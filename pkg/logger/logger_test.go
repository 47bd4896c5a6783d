package logger_test

import (
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/cognitive-core/pkg/logger"
)

var _ = Describe("Logger", func() {
	Describe("New", func() {
		It("should create a logger for every known level", func() {
			for _, lvl := range []string{"debug", "info", "warn", "error"} {
				Expect(logger.New(lvl, false, "development")).NotTo(BeNil())
			}
		})

		It("should default to info for an unknown level", func() {
			log := logger.New("loud", false, "development")
			Expect(log).NotTo(BeNil())
			Expect(log.Enabled(nil, slog.LevelInfo)).To(BeTrue())
			Expect(log.Enabled(nil, slog.LevelDebug)).To(BeFalse())
		})

		It("should create a production logger", func() {
			Expect(logger.New("info", false, "production")).NotTo(BeNil())
			Expect(logger.New("info", false, "prod")).NotTo(BeNil())
		})

		It("should support the addSource option", func() {
			Expect(logger.New("info", true, "development")).NotTo(BeNil())
		})

		It("should respect the debug level", func() {
			log := logger.New("debug", false, "development")

			Expect(log.Enabled(nil, slog.LevelDebug)).To(BeTrue())
			Expect(log.Enabled(nil, slog.LevelInfo)).To(BeTrue())
		})

		It("should respect the warn level", func() {
			log := logger.New("warn", false, "development")

			Expect(log.Enabled(nil, slog.LevelInfo)).To(BeFalse())
			Expect(log.Enabled(nil, slog.LevelWarn)).To(BeTrue())
		})

		It("should respect the error level", func() {
			log := logger.New("error", false, "development")

			Expect(log.Enabled(nil, slog.LevelWarn)).To(BeFalse())
			Expect(log.Enabled(nil, slog.LevelError)).To(BeTrue())
		})
	})
})
