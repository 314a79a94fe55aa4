package datapush

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// 常量定义
const (
	RETRY_TIMES     = 5
	RETRY_INTERVAL  = 2 * time.Second
	REQUEST_TIMEOUT = 10 * time.Second
)

// 钉钉 API 响应结构体
type DingTalkResponse struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

// markdown 消息体
type markdownMessage struct {
	MsgType  string `json:"msgtype"`
	Markdown struct {
		Title string `json:"title"`
		Text  string `json:"text"`
	} `json:"markdown"`
}

// Pusher 通过钉钉群机器人 webhook 推送运行摘要
type Pusher struct {
	Webhook  string
	Title    string
	Client   *http.Client
	Retries  int
	Interval time.Duration
}

func NewPusher(webhook, title string) *Pusher {
	if title == "" {
		title = "ENADE Insights"
	}
	return &Pusher{
		Webhook:  webhook,
		Title:    title,
		Client:   &http.Client{Timeout: REQUEST_TIMEOUT},
		Retries:  RETRY_TIMES,
		Interval: RETRY_INTERVAL,
	}
}

// Markdown 把标题和若干行拼成钉钉 markdown 文本
func Markdown(title string, lines []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "### %s\n\n", title)
	for _, l := range lines {
		fmt.Fprintf(&b, "- %s\n", l)
	}
	return b.String()
}

// Push 发送摘要，失败时按 Retries/Interval 重试
func (p *Pusher) Push(ctx context.Context, lines []string) error {
	if p.Webhook == "" {
		return fmt.Errorf("未配置钉钉 webhook")
	}
	msg := markdownMessage{MsgType: "markdown"}
	msg.Markdown.Title = p.Title
	msg.Markdown.Text = Markdown(p.Title, lines)

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("序列化请求体失败: %v", err)
	}

	return retry(ctx, func() error {
		return p.send(ctx, payload)
	}, p.Retries, p.Interval)
}

func (p *Pusher) send(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.Webhook, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("创建请求失败: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("发送请求失败: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("读取响应失败: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("webhook 返回 %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var result DingTalkResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return fmt.Errorf("解析响应失败: %v", err)
	}
	if result.ErrCode != 0 {
		return fmt.Errorf("发送消息失败: %s", result.ErrMsg)
	}
	return nil
}

// 重试函数
func retry(ctx context.Context, fn func() error, times int, interval time.Duration) error {
	if times < 1 {
		times = 1
	}
	var err error
	for i := 0; i < times; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i < times-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(interval):
			}
		}
	}
	return fmt.Errorf("重试 %d 次后失败: %w", times, err)
}
