package api

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// テスト用に時刻を固定し、待機を記録する方針を作成します
func newTestPolicy(now time.Time) (*RetryPolicy, *[]time.Duration) {
	var sleeps []time.Duration

	policy := NewRetryPolicy()
	policy.Now = func() time.Time { return now }
	policy.Sleep = func(d time.Duration) { sleeps = append(sleeps, d) }
	policy.NewBackOff = func() backoff.BackOff {
		return backoff.NewConstantBackOff(5 * time.Second)
	}

	return policy, &sleeps
}

func resp429(header http.Header) *http.Response {
	if header == nil {
		header = http.Header{}
	}
	return &http.Response{
		StatusCode: http.StatusTooManyRequests,
		Header:     header,
		Body:       io.NopCloser(strings.NewReader("rate limited")),
	}
}

func resp200() *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{},
		Body:       io.NopCloser(strings.NewReader("ok")),
	}
}

func TestRetryPolicy_PassesThroughSuccess(t *testing.T) {
	policy, sleeps := newTestPolicy(time.Now())

	resp, err := policy.Do(func() (*http.Response, error) {
		return resp200(), nil
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, *sleeps)
}

func TestRetryPolicy_PassesThroughTransportError(t *testing.T) {
	policy, _ := newTestPolicy(time.Now())

	_, err := policy.Do(func() (*http.Response, error) {
		return nil, fmt.Errorf("接続エラー")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "接続エラー")
}

func TestRetryPolicy_WaitsForResetHeader(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	policy, sleeps := newTestPolicy(now)

	// リセットまで10秒の429 → 待機して再試行 → 成功
	reset := strconv.FormatInt(now.Add(10*time.Second).Unix(), 10)
	calls := 0

	resp, err := policy.Do(func() (*http.Response, error) {
		calls++
		if calls == 1 {
			return resp429(http.Header{"X-Ratelimit-Reset": []string{reset}}), nil
		}
		return resp200(), nil
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, calls)

	// 待機時間はリセットまでの残り時間＋バッファ
	require.Len(t, *sleeps, 1)
	assert.Equal(t, 10*time.Second+policy.Buffer, (*sleeps)[0])
}

func TestRetryPolicy_RetryAfterHeader(t *testing.T) {
	policy, sleeps := newTestPolicy(time.Now())
	calls := 0

	_, err := policy.Do(func() (*http.Response, error) {
		calls++
		if calls == 1 {
			return resp429(http.Header{"Retry-After": []string{"3"}}), nil
		}
		return resp200(), nil
	})
	require.NoError(t, err)
	require.Len(t, *sleeps, 1)
	assert.Equal(t, 3*time.Second+policy.Buffer, (*sleeps)[0])
}

func TestRetryPolicy_AbortsWhenWaitExceedsMax(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	policy, sleeps := newTestPolicy(now)

	// リセットまで90秒 > MaxWait(1分) → 待たずに即エラー
	reset := strconv.FormatInt(now.Add(90*time.Second).Unix(), 10)

	_, err := policy.Do(func() (*http.Response, error) {
		return resp429(http.Header{"X-Ratelimit-Reset": []string{reset}}), nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "レート制限中です")
	assert.Contains(t, err.Error(), "1m30s")
	assert.Empty(t, *sleeps, "上限超過時は待機しない")
}

func TestRetryPolicy_PastResetClampedToZero(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	policy, sleeps := newTestPolicy(now)

	// リセット時刻が過去 → 待機はバッファのみ
	reset := strconv.FormatInt(now.Add(-30*time.Second).Unix(), 10)
	calls := 0

	_, err := policy.Do(func() (*http.Response, error) {
		calls++
		if calls == 1 {
			return resp429(http.Header{"X-Ratelimit-Reset": []string{reset}}), nil
		}
		return resp200(), nil
	})
	require.NoError(t, err)
	require.Len(t, *sleeps, 1)
	assert.Equal(t, policy.Buffer, (*sleeps)[0])
}

func TestRetryPolicy_BackoffWithoutHeaders(t *testing.T) {
	policy, sleeps := newTestPolicy(time.Now())
	calls := 0

	_, err := policy.Do(func() (*http.Response, error) {
		calls++
		if calls <= 2 {
			return resp429(nil), nil
		}
		return resp200(), nil
	})
	require.NoError(t, err)
	// ヘッダーなしの429は指数バックオフ（テストでは固定5秒）
	assert.Equal(t, []time.Duration{5 * time.Second, 5 * time.Second}, *sleeps)
}

func TestRetryPolicy_RetryCeiling(t *testing.T) {
	policy, sleeps := newTestPolicy(time.Now())
	calls := 0

	_, err := policy.Do(func() (*http.Response, error) {
		calls++
		return resp429(http.Header{"Retry-After": []string{"0"}}), nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "再試行回数が上限")
	// 初回＋再試行5回
	assert.Equal(t, policy.MaxRetries+1, calls)
	assert.Len(t, *sleeps, policy.MaxRetries)
}
