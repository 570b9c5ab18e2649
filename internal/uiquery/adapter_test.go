package uiquery

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueryString(t *testing.T) {
	assert.Equal(t, "css(#DOC_CPF)", CSS("#DOC_CPF").String())
	assert.Equal(t, "xpath(//a)", XPath("//a").String())
}

func TestTextContainsIsCaseInsensitive(t *testing.T) {
	q := TextContains("a", "Baixar Anexo")
	assert.Equal(t, ByXPath, q.Strategy)
	assert.Contains(t, q.Selector, "'baixar anexo'")
	assert.Contains(t, q.Selector, "translate(")
}

func TestClickScriptPerStrategy(t *testing.T) {
	css := clickScript(CSS("#DOC_CPF a"))
	assert.Equal(t, `document.querySelector("#DOC_CPF a").click()`, css)

	xp := clickScript(XPath(`(//tbody/tr[contains(@class,'table-row')])[3]//a`))
	assert.Contains(t, xp, "document.evaluate(")
	assert.Contains(t, xp, "XPathResult.FIRST_ORDERED_NODE_TYPE")
	assert.Contains(t, xp, ".singleNodeValue.click()")
	assert.NotContains(t, xp, "querySelector")
}

func TestXPathLiteral(t *testing.T) {
	assert.Equal(t, "'plain'", xpathLiteral("plain"))
	assert.Equal(t, `"it's"`, xpathLiteral("it's"))

	mixed := xpathLiteral(`both ' and "`)
	assert.True(t, strings.HasPrefix(mixed, "concat("))
	assert.Contains(t, mixed, `"'"`)
}
