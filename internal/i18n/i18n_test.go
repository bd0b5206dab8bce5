package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit(t *testing.T) {
	require.NoError(t, Init())
	assert.NotNil(t, bundle)
}

func TestTranslations(t *testing.T) {
	require.NoError(t, Init())

	en := GetLocalizer("en-US")
	assert.Equal(t, "Success", T(en, "common.success"))

	zh := GetLocalizer("zh-CN,zh;q=0.9")
	assert.Equal(t, "成功", T(zh, "common.success"))

	// Unknown message IDs fall back to the ID itself.
	assert.Equal(t, "does.not.exist", T(en, "does.not.exist"))
}

func TestNormalizeLanguageCode(t *testing.T) {
	assert.Equal(t, "zh-CN", normalizeLanguageCode("zh-Hans"))
	assert.Equal(t, "en-US", normalizeLanguageCode("en-GB"))
	assert.Equal(t, "en-US", normalizeLanguageCode("fr"))
}
