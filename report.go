package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/bitmark-inc/covid-trends/numeric"
	"github.com/bitmark-inc/covid-trends/schema"
	"github.com/bitmark-inc/covid-trends/score"
	"github.com/bitmark-inc/covid-trends/store"
	"github.com/bitmark-inc/covid-trends/utils"
)

var (
	reportMetric   string
	reportAreaType string
	reportAncestor string
	reportLimit    int
	reportLang     string
)

var reportColumns = []string{
	"report_area",
	"report_date",
	"report_value",
	"report_daily_change_7",
	"report_per_capita",
	"report_doubling",
	"report_severity",
	"report_trend",
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the worst hotspots of a metric",
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringVarP(&reportMetric, "metric", "m", "cases", "metric to rank")
	reportCmd.Flags().StringVarP(&reportAreaType, "type", "t", "", "only rank areas of this type")
	reportCmd.Flags().StringVar(&reportAncestor, "ancestor", "", "only rank areas below this area")
	reportCmd.Flags().IntVarP(&reportLimit, "limit", "n", 0, "number of hotspots, defaults to report.limit")
	reportCmd.Flags().StringVar(&reportLang, "lang", "en", "language of labels and numbers, en or zh-TW")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	svc, err := newServices(context.Background())
	if err != nil {
		return err
	}
	defer svc.Close()

	risk, err := riskConfig()
	if err != nil {
		return err
	}

	cache := store.NewCache(svc.store, nil)
	if err := cache.Reload(); err != nil {
		return err
	}

	filter := score.Filter{
		Ancestor: reportAncestor,
		Limit:    reportLimit,
	}
	if filter.Limit <= 0 {
		filter.Limit = viper.GetInt("report.limit")
	}
	if reportAreaType != "" {
		filter.Type = schema.ParseAreaType(reportAreaType)
	}

	hotspots := score.Rank(cache, svc.directory, reportMetric, risk, filter)
	return writeReport(cmd.OutOrStdout(), hotspots, reportLang)
}

// writeReport prints one row per hotspot with labels and number grouping
// of lang.
func writeReport(w io.Writer, hotspots []score.HotspotInfo, lang string) error {
	bundle, err := utils.NewI18NBundle()
	if err != nil {
		return err
	}
	localizer := utils.NewLocalizer(bundle, lang)
	label := func(id string) string {
		return localizer.MustLocalize(&i18n.LocalizeConfig{MessageID: id})
	}

	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.English
	}
	p := message.NewPrinter(tag)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)

	for _, id := range reportColumns {
		fmt.Fprintf(tw, "%s\t", label(id))
	}
	fmt.Fprintln(tw)

	for _, h := range hotspots {
		p.Fprintf(tw, "%s\t%s\t%.0f\t%s\t%s\t%s\t%d\t%s\t\n",
			h.AreaID,
			h.Date.Format("2006-01-02"),
			float64(h.Value),
			formatOptional(p, h.DailyChange7, "%.1f"),
			formatOptional(p, h.DailyChange7PerCapita, "%.2f"),
			formatOptional(p, h.DoublingTimeDays, "%.1f"),
			h.TotalSeverity,
			formatTrend(localizer, h.TrendDays),
		)
	}
	return tw.Flush()
}

func formatOptional(p *message.Printer, v *numeric.Float, format string) string {
	if v == nil {
		return "-"
	}
	return p.Sprintf(format, float64(*v))
}

func formatTrend(localizer *i18n.Localizer, days *int) string {
	if days == nil {
		return "-"
	}

	id, n := "report_trend_flat", *days
	switch {
	case n > 0:
		id = "report_trend_up"
	case n < 0:
		id, n = "report_trend_down", -n
	}
	return localizer.MustLocalize(&i18n.LocalizeConfig{
		MessageID:    id,
		TemplateData: map[string]interface{}{"Days": n},
	})
}
