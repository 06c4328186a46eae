package models

// MigrationResult は1件の移行処理の結果を表します
type MigrationResult struct {
	Success   bool   // 移行に成功したかどうか
	JiraKey   string // 対象のJIRAイシューキー (PROJECT-123 形式)
	TargetID  string // 移行先レコードのID
	TargetURL string // 移行先レコードのURL
	WasUpdate bool   // 既存レコードの更新だったかどうか
	Error     string // 失敗時のエラーメッセージ
}

// BulkSummary は一括移行の結果集計を表します
type BulkSummary struct {
	Total     int
	Succeeded int
	Failed    int
}

// Summarize は移行結果のリストから集計を作成します
func Summarize(results []MigrationResult) BulkSummary {
	summary := BulkSummary{Total: len(results)}
	for _, r := range results {
		if r.Success {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
	}
	return summary
}
