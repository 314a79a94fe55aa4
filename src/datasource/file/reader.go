// reader.go
package file

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"EnadeInsights/src/table"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/tealeg/xlsx"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// LoadOptions 数据集读取选项
type LoadOptions struct {
	Delimiter rune     // 分隔符，默认 ','
	Encoding  string   // 文件编码，如 "utf-8"、"latin1"、"windows-1252"
	NaNValues []string // 视为缺失值的字符串
	SheetName string   // xlsx 工作表名，为空取第一个
}

func (o LoadOptions) loadOptions() []dataframe.LoadOption {
	opts := []dataframe.LoadOption{
		dataframe.DetectTypes(true),
		dataframe.HasHeader(true),
	}
	if len(o.NaNValues) > 0 {
		opts = append(opts, dataframe.NaNValues(o.NaNValues))
	}
	return opts
}

// LoadTable 按扩展名读取数据集: .xlsx 通过 tealeg/xlsx，其余按分隔文本读取
func LoadTable(path string, opts LoadOptions) (*table.Table, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("dataset %s not found: %w", path, err)
	}
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return ReadXLSX(path, opts)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadCSV(f, opts)
}

// ReadCSV 读取分隔文本，先按 Encoding 转为 UTF-8
func ReadCSV(r io.Reader, opts LoadOptions) (*table.Table, error) {
	r, err := decode(r, opts.Encoding)
	if err != nil {
		return nil, err
	}
	delim := opts.Delimiter
	if delim == 0 {
		delim = ','
	}
	lo := append(opts.loadOptions(), dataframe.WithDelimiter(delim), dataframe.WithLazyQuotes(true))
	df := dataframe.ReadCSV(r, lo...)
	if df.Err != nil {
		return nil, fmt.Errorf("read csv: %w", df.Err)
	}
	return table.FromFrame(df)
}

// decode wraps r with a decoder for the named charset.
func decode(r io.Reader, charset string) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(charset)) {
	case "", "utf-8", "utf8":
		return r, nil
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, fmt.Errorf("unsupported encoding %q: %w", charset, err)
	}
	return transform.NewReader(r, enc.NewDecoder()), nil
}

// ReadXLSX 使用tealeg/xlsx打开Excel文件并转换为表
func ReadXLSX(filePath string, opts LoadOptions) (*table.Table, error) {
	xlFile, err := xlsx.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("xlsx open file: %w", err)
	}
	return sheetTable(xlFile, opts)
}

// ReadXLSXBytes 从内存中的 xlsx 内容(如邮件附件)读取表
func ReadXLSXBytes(data []byte, opts LoadOptions) (*table.Table, error) {
	xlFile, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, fmt.Errorf("xlsx open binary: %w", err)
	}
	return sheetTable(xlFile, opts)
}

func sheetTable(xlFile *xlsx.File, opts LoadOptions) (*table.Table, error) {
	if len(xlFile.Sheets) == 0 {
		return nil, fmt.Errorf("excel文件中没有工作表")
	}
	sheet := xlFile.Sheets[0]
	if opts.SheetName != "" {
		s, ok := xlFile.Sheet[opts.SheetName]
		if !ok {
			return nil, fmt.Errorf("sheet %q not found", opts.SheetName)
		}
		sheet = s
	}

	records := sheetRecords(sheet)
	if len(records) < 2 {
		return nil, fmt.Errorf("sheet %q has no data rows", sheet.Name)
	}
	df := dataframe.LoadRecords(records, opts.loadOptions()...)
	if df.Err != nil {
		return nil, fmt.Errorf("load sheet %q: %w", sheet.Name, df.Err)
	}
	return table.FromFrame(df)
}

// sheetRecords 第一行为标题行，短行补齐为空串，全空行跳过
func sheetRecords(sheet *xlsx.Sheet) [][]string {
	if len(sheet.Rows) == 0 {
		return nil
	}
	var headers []string
	for _, cell := range sheet.Rows[0].Cells {
		headers = append(headers, strings.TrimSpace(cell.String()))
	}
	for len(headers) > 0 && headers[len(headers)-1] == "" {
		headers = headers[:len(headers)-1]
	}

	records := [][]string{headers}
	for _, row := range sheet.Rows[1:] {
		rec := make([]string, len(headers))
		empty := true
		for i, cell := range row.Cells {
			if i >= len(headers) {
				break
			}
			rec[i] = cell.String()
			if rec[i] != "" {
				empty = false
			}
		}
		if !empty {
			records = append(records, rec)
		}
	}
	return records
}

// SaveCSV 将表写为 CSV，缺失值写为空串，自动创建父目录
func SaveCSV(t *table.Table, path string) error {
	if t.Ncol() == 0 {
		return fmt.Errorf("save %s: table has no columns", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}

	// the header travels as a data row so that header-only tables can be
	// written as well
	df := dataframe.LoadRecords(t.Records(),
		dataframe.HasHeader(false),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(nil),
	)
	if df.Err != nil {
		return fmt.Errorf("save %s: %w", path, df.Err)
	}

	var buf bytes.Buffer
	if err := df.WriteCSV(&buf, dataframe.WriteHeader(false)); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

// SaveXLSX 将表保存为Excel文件
func SaveXLSX(t *table.Table, filePath, sheetName string) error {
	f := excelize.NewFile()
	defer f.Close()

	if sheetName == "" {
		sheetName = "Sheet1"
	}
	if sheetName != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheetName); err != nil {
			return fmt.Errorf("rename sheet: %w", err)
		}
	}
	if err := WriteSheet(f, sheetName, t); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	if err := f.SaveAs(filePath); err != nil {
		return fmt.Errorf("保存Excel文件失败: %w", err)
	}
	return nil
}

// WriteSheet 写入列名和数据，数值保持数值类型
func WriteSheet(f *excelize.File, sheetName string, t *table.Table) error {
	for i, name := range t.Names() {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, name); err != nil {
			return err
		}
		c, _ := t.Column(name)
		for row, v := range c.Values {
			if v == nil {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(i+1, row+2)
			if err := f.SetCellValue(sheetName, cell, cellValue(v)); err != nil {
				return err
			}
		}
	}
	return nil
}

func cellValue(v any) any {
	switch v.(type) {
	case int, float64, string:
		return v
	}
	return table.Format(v)
}
