package repository

import (
	"errors"
	"testing"

	"github.com/lib/pq"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantIs  error
		wantNil bool
	}{
		{name: "nil", err: nil, wantNil: true},
		{name: "unique violation", err: &pq.Error{Code: "23505", Constraint: "idx_cart_lines_user_product"}, wantIs: ErrDuplicate},
		{name: "foreign key violation", err: &pq.Error{Code: "23503", Constraint: "orders_address_id_fkey"}, wantIs: ErrForeignKey},
		{name: "other pq error", err: &pq.Error{Code: "23514"}, wantIs: nil},
		{name: "plain error", err: errors.New("boom"), wantIs: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyError(tt.err, "op")
			if tt.wantNil {
				if got != nil {
					t.Fatalf("nilを期待しましたが %v が返りました", got)
				}
				return
			}
			if got == nil {
				t.Fatal("エラーが返りませんでした")
			}
			if tt.wantIs != nil && !errors.Is(got, tt.wantIs) {
				t.Errorf("errors.Is(%v, %v) = false", got, tt.wantIs)
			}
			if tt.wantIs == nil && (errors.Is(got, ErrDuplicate) || errors.Is(got, ErrForeignKey)) {
				t.Errorf("分類対象外のエラーがセンチネルに変換されました: %v", got)
			}
			if !errors.Is(got, tt.err) && tt.wantIs == nil {
				t.Errorf("元のエラーがラップされていません: %v", got)
			}
		})
	}
}
