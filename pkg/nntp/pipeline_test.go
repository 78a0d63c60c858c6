package nntp

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchArticlesPipelined(t *testing.T) {
	conn, sc := dialScript(t,
		"200 ready\r\n",
		"220 0 <one@x> article follows\r\n",
		"Subject: a\r\n",
		"\r\n",
		"first\r\n",
		".\r\n",
		"430 no such article\r\n",
		"220 0 <three@x> article follows\r\n",
		"third\r\n",
		".\r\n",
	)
	results, err := conn.FetchArticles(context.Background(),
		[]string{"one@x", "two@x", "three@x"}, 2)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "Subject: a\r\n\r\nfirst", string(results[0].Body))
	assert.NoError(t, results[0].Err)

	var missing *NoSuchArticleError
	require.ErrorAs(t, results[1].Err, &missing)
	assert.Equal(t, "<two@x>", missing.Spec)

	assert.Equal(t, "third", string(results[2].Body))

	// Responses are matched to commands strictly in send order.
	sent := sc.sent()
	assert.Less(t, strings.Index(sent, "ARTICLE <one@x>"), strings.Index(sent, "ARTICLE <two@x>"))
	assert.Less(t, strings.Index(sent, "ARTICLE <two@x>"), strings.Index(sent, "ARTICLE <three@x>"))
}

func TestFetchArticlesEmptyBatch(t *testing.T) {
	conn, sc := dialScript(t, "200 ready\r\n")
	results, err := conn.FetchArticles(context.Background(), nil, 8)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Empty(t, sc.sent())
}

func TestFetchArticlesTransportFailure(t *testing.T) {
	// One response, then EOF while a second is still owed.
	conn, _ := dialScript(t,
		"200 ready\r\n",
		"220 0 <one@x> article follows\r\n",
		"Subject: a\r\n",
		"\r\n",
		"first\r\n",
		".\r\n",
	)
	_, err := conn.FetchArticles(context.Background(), []string{"one@x", "two@x"}, 2)
	require.Error(t, err)
	assert.Equal(t, StateClosed, conn.State())
}

func TestCheckMany(t *testing.T) {
	conn, _ := dialScript(t,
		"200 ready\r\n",
		"238 <want@x>\r\n",
		"431 <later@x>\r\n",
		"438 <have@x>\r\n",
	)
	results, err := conn.CheckMany(context.Background(),
		[]string{"want@x", "later@x", "have@x"}, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, CheckSend, results[0].Status)
	assert.Equal(t, CheckLater, results[1].Status)
	assert.Equal(t, CheckNotWanted, results[2].Status)
}

func TestCheckManyDetectsDesync(t *testing.T) {
	conn, _ := dialScript(t,
		"200 ready\r\n",
		"238 <other@x>\r\n",
	)
	_, err := conn.CheckMany(context.Background(), []string{"want@x"}, 1)
	var ierr *InvalidResponseError
	require.ErrorAs(t, err, &ierr)
	assert.Equal(t, StateClosed, conn.State())
}
