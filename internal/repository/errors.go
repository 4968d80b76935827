package repository

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

var (
	// ErrDuplicate は一意制約違反を表す。
	ErrDuplicate = errors.New("repository: duplicate key")
	// ErrForeignKey は外部キー制約違反を表す。
	ErrForeignKey = errors.New("repository: foreign key violation")
	// ErrNotFound は更新・削除対象の行が存在しないことを表す。
	ErrNotFound = errors.New("repository: not found")
)

// PostgreSQLのSQLSTATEコード
const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// classifyError はドライバ固有のエラーをリポジトリのセンチネルエラーに変換する。
// 対象外のエラーはmsgを付けてラップする。
func classifyError(err error, msg string) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			return fmt.Errorf("%s: %w (%s)", msg, ErrDuplicate, pqErr.Constraint)
		case pqForeignKeyViolation:
			return fmt.Errorf("%s: %w (%s)", msg, ErrForeignKey, pqErr.Constraint)
		}
	}
	return fmt.Errorf("%s: %w", msg, err)
}
