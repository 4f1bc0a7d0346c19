package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

// ━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━
// 彩色输出工具
// ━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━

var (
	// 颜色函数
	colorSuccess = color.New(color.FgGreen).SprintFunc()
	colorError   = color.New(color.FgRed).SprintFunc()
	colorWarning = color.New(color.FgYellow).SprintFunc()
	colorInfo    = color.New(color.FgCyan).SprintFunc()
	colorBold    = color.New(color.Bold).SprintFunc()
	colorFaint   = color.New(color.Faint).SprintFunc()
)

// Output 提供结构化的输出接口
type Output struct {
	w       io.Writer
	noColor bool
}

// NewOutput 创建输出工具，w 为 nil 时写到标准输出
func NewOutput(w io.Writer, noColor bool) *Output {
	if w == nil {
		w = os.Stdout
	}
	color.NoColor = noColor
	return &Output{w: w, noColor: noColor}
}

// Writer 返回底层输出
func (o *Output) Writer() io.Writer {
	return o.w
}

// Success 输出成功消息
func (o *Output) Success(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(o.w, "%s %s\n", colorSuccess("✔"), msg)
}

// Error 输出错误消息
func (o *Output) Error(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(o.w, "%s %s\n", colorError("✘"), msg)
}

// Warning 输出警告消息
func (o *Output) Warning(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(o.w, "%s %s\n", colorWarning("!"), msg)
}

// Info 输出信息消息
func (o *Output) Info(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(o.w, "%s %s\n", colorInfo("i"), msg)
}

// Plain 输出普通消息（无颜色）
func (o *Output) Plain(format string, args ...interface{}) {
	fmt.Fprintf(o.w, format+"\n", args...)
}

// Header 输出标题
func (o *Output) Header(title string) {
	fmt.Fprintln(o.w, colorBold(title))
	fmt.Fprintln(o.w, strings.Repeat("━", min(len(title), 80)))
}

// KeyValue 输出键值对
func (o *Output) KeyValue(key, value string) {
	fmt.Fprintf(o.w, "  %-16s %s\n", colorBold(key+":"), value)
}

// Separator 输出分隔线
func (o *Output) Separator() {
	fmt.Fprintln(o.w, colorFaint(strings.Repeat("━", 80)))
}

// Proxy 按代理决策着色
func (o *Output) Proxy(need bool) string {
	if need {
		return colorWarning("proxy")
	}
	return colorSuccess("direct")
}

// Table 输出表格
type Table struct {
	headers []string
	rows    [][]string
	widths  []int
}

// NewTable 创建新表格
func NewTable(headers ...string) *Table {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	return &Table{
		headers: headers,
		rows:    make([][]string, 0),
		widths:  widths,
	}
}

// AddRow 添加行
func (t *Table) AddRow(cols ...string) {
	for i, col := range cols {
		if i < len(t.widths) && len(col) > t.widths[i] {
			t.widths[i] = len(col)
		}
	}
	t.rows = append(t.rows, cols)
}

// Render 渲染表格
func (t *Table) Render(w io.Writer) {
	for i, header := range t.headers {
		fmt.Fprintf(w, "%-*s  ", t.widths[i], header)
	}
	fmt.Fprintln(w)

	totalWidth := 0
	for _, width := range t.widths {
		totalWidth += width + 2
	}
	fmt.Fprintln(w, strings.Repeat("─", min(totalWidth, 120)))

	for _, row := range t.rows {
		for i, col := range row {
			if i < len(t.widths) {
				fmt.Fprintf(w, "%-*s  ", t.widths[i], col)
			}
		}
		fmt.Fprintln(w)
	}
}
