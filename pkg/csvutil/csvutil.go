package csvutil

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// WriteRecords 将记录集写成 CSV 并返回缓冲区。
// 带 UTF-8 BOM，Excel 打开含非 ASCII 字符的文件时不乱码。
func WriteRecords(records [][]string) (*bytes.Buffer, error) {
	buf := new(bytes.Buffer)
	buf.Write([]byte{0xEF, 0xBB, 0xBF})

	w := csv.NewWriter(buf)
	for _, record := range records {
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("写入 CSV 记录失败: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("刷新 CSV 缓冲失败: %w", err)
	}

	return buf, nil
}
