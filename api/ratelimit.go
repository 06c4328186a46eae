package api

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"

	"jiramigration/utils"
)

// レート制限再試行のデフォルト値
const (
	defaultMaxRetries = 5
	defaultMaxWait    = time.Minute
	defaultWaitBuffer = time.Second
)

// RetryPolicy は429レスポンスに対する再試行方針を保持します
//
// リセットヘッダーがある場合は残り時間＋バッファだけ待機し、
// ない場合は指数バックオフで待機します。必要な待機時間が MaxWait を
// 超える場合は待たずに即エラーを返します
type RetryPolicy struct {
	MaxRetries int           // 再試行回数の上限
	MaxWait    time.Duration // これを超える待機が必要なら即エラー
	Buffer     time.Duration // リセット時刻に加える余裕

	// テスト用に差し替え可能にしておく
	Sleep      func(time.Duration)
	Now        func() time.Time
	NewBackOff func() backoff.BackOff
}

// NewRetryPolicy はデフォルト設定の再試行方針を作成します
func NewRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxRetries: defaultMaxRetries,
		MaxWait:    defaultMaxWait,
		Buffer:     defaultWaitBuffer,
		Sleep:      time.Sleep,
		Now:        time.Now,
		NewBackOff: func() backoff.BackOff {
			// BackOffはステートフルなので呼び出しごとに新規作成する
			bo := backoff.NewExponentialBackOff()
			bo.InitialInterval = time.Second
			bo.MaxInterval = 30 * time.Second
			return bo
		},
	}
}

// Do はリクエスト発行関数を429対応の再試行付きで実行します
// 429以外のレスポンスとトランスポートエラーはそのまま返します
func (p *RetryPolicy) Do(issue func() (*http.Response, error)) (*http.Response, error) {
	bo := p.NewBackOff()

	for attempt := 0; ; attempt++ {
		resp, err := issue()
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}

		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()

		if attempt >= p.MaxRetries {
			return nil, fmt.Errorf("レート制限の再試行回数が上限 (%d回) に達しました", p.MaxRetries)
		}

		wait, fromHeader := p.waitFromHeaders(resp.Header)
		if fromHeader {
			if wait > p.MaxWait {
				until := p.Now().Add(wait)
				return nil, fmt.Errorf("レート制限中です。%s 以降に再実行してください (必要待機時間: %s)",
					until.Format("15:04:05"), wait.Round(time.Second))
			}
			wait += p.Buffer
		} else {
			wait = bo.NextBackOff()
		}

		utils.LogWarn("レート制限を検出しました。%s 待機して再試行します (%d回目)", wait.Round(time.Millisecond), attempt+1)
		p.Sleep(wait)
	}
}

// waitFromHeaders はレスポンスヘッダーから必要な待機時間を求めます
// X-RateLimit-Reset（UNIX秒）を優先し、次に Retry-After（秒数）を参照します
func (p *RetryPolicy) waitFromHeaders(header http.Header) (time.Duration, bool) {
	if v := header.Get("X-RateLimit-Reset"); v != "" {
		if sec, err := strconv.ParseInt(v, 10, 64); err == nil {
			wait := time.Unix(sec, 0).Sub(p.Now())
			if wait < 0 {
				wait = 0
			}
			return wait, true
		}
	}

	if v := header.Get("Retry-After"); v != "" {
		if sec, err := strconv.Atoi(v); err == nil && sec >= 0 {
			return time.Duration(sec) * time.Second, true
		}
	}

	return 0, false
}
