package utils_test

import (
	"testing"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/covid-trends/utils"
)

func TestNewI18NBundle(t *testing.T) {
	bundle, err := utils.NewI18NBundle()
	require.NoError(t, err)

	en := utils.NewLocalizer(bundle, "en")
	assert.Equal(t, "AREA", en.MustLocalize(&i18n.LocalizeConfig{MessageID: "report_area"}))

	tw := utils.NewLocalizer(bundle, "zh-TW")
	assert.Equal(t, "上升 3 天", tw.MustLocalize(&i18n.LocalizeConfig{
		MessageID:    "report_trend_up",
		TemplateData: map[string]interface{}{"Days": 3},
	}))

	fallback := utils.NewLocalizer(bundle, "fr")
	assert.Equal(t, "flat", fallback.MustLocalize(&i18n.LocalizeConfig{MessageID: "report_trend_flat"}))
}
