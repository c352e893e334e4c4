package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentDisposition(t *testing.T) {
	tests := []struct {
		disp, name, want string
	}{
		{"attachment", "report.pdf", `attachment; filename="report.pdf"`},
		{"inline", "Spirometria Nicolò.pdf", `inline; filename="Spirometria Nicolo.pdf"; filename*=UTF-8''Spirometria%20Nicol%C3%B2.pdf`},
		{"attachment", `a"b\c.txt`, `attachment; filename="a_b_c.txt"; filename*=UTF-8''a%22b%5Cc.txt`},
		{"attachment", "心电图.png", `attachment; filename="___.png"; filename*=UTF-8''%E5%BF%83%E7%94%B5%E5%9B%BE.png`},
		{"inline", "", "inline"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, contentDisposition(tt.disp, tt.name))
		})
	}
}
