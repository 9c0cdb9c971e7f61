package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixture = `<html><body>
<ul class="que-list"><li class="error">1</li><li>2</li><li class="error done">3</li></ul>
<div class="group">
  <span class="title"> Choice </span>
  <div class="question-review">
    <div class="ck-content title">  What is two plus two?  </div>
    <div class="option-list">
      <div class="option"><span class="item">A</span><span class="opt-content">3</span></div>
      <div class="option"><span class="item correct">B</span><span class="opt-content">4</span></div>
    </div>
  </div>
</div>
</body></html>`

func TestFindInDocumentOrder(t *testing.T) {
	root, err := ParseString(fixture)
	require.NoError(t, err)

	items := root.Find(".que-list li")
	require.Len(t, items, 3)
	assert.Equal(t, "1", items[0].Text())
	assert.True(t, items[0].HasClass("error"))
	assert.False(t, items[1].HasClass("error"))
	assert.True(t, items[2].HasClass("done"))
}

func TestCompoundAndDescendantSelectors(t *testing.T) {
	root, err := ParseString(fixture)
	require.NoError(t, err)

	title := root.First(".ck-content.title")
	require.NotNil(t, title)
	assert.Equal(t, "What is two plus two?", title.Text())

	correct := root.First(".option .item.correct")
	require.NotNil(t, correct)
	assert.Equal(t, "B", correct.Text())

	assert.Len(t, root.Find("li.error"), 2)
	assert.Len(t, root.Find(".group .option"), 2)
	assert.Nil(t, root.First(".option .missing"))
}

func TestFirstScopedToSubtree(t *testing.T) {
	root, err := ParseString(fixture)
	require.NoError(t, err)

	group := root.First(".group")
	require.NotNil(t, group)
	assert.Equal(t, "Choice", group.First(".title").Text())

	opts := group.Find(".option")
	require.Len(t, opts, 2)
	assert.Equal(t, "A", opts[0].First(".item").Text())
	assert.Nil(t, opts[0].First(".group"))
}

func TestInvalidSelectors(t *testing.T) {
	root, err := ParseString(fixture)
	require.NoError(t, err)

	for _, sel := range []string{"", "   ", ".", "li..error", "div[", ":unknown-pseudo"} {
		assert.Empty(t, root.Find(sel), sel)
		assert.Nil(t, root.First(sel), sel)
	}
}

func TestAttributeAndChildSelectors(t *testing.T) {
	root, err := ParseString(fixture)
	require.NoError(t, err)

	assert.Len(t, root.Find(".option-list > .option"), 2)
	assert.Len(t, root.Find(".group > .option"), 0)
	assert.Len(t, root.Find(`li[class~="error"]`), 2)

	last := root.First(".que-list li:last-child")
	require.NotNil(t, last)
	assert.Equal(t, "3", last.Text())
}
