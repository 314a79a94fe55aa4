// email_handler.go
package email

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"EnadeInsights/src/storage"
	"EnadeInsights/src/utils"
)

// DatasetExtensions 作为数据集接收的附件扩展名
var DatasetExtensions = []string{".csv", ".txt", ".xlsx"}

// ====================== 邮件处理器实现 ======================

// AttachmentHandler 保存主题匹配邮件中的数据集附件
type AttachmentHandler struct {
	TargetSubject string // 目标邮件主题关键词
	DataDir       string // 附件保存目录
	// SaveAs 非空时第一个数据集附件以该文件名保存，覆盖配置的输入文件
	SaveAs        string
	logger        *storage.Logger
	processedUIDs map[uint32]bool // 已处理邮件UID记录
	mu            sync.RWMutex    // 保护processedUIDs的读写锁
}

func NewAttachmentHandler(subject, dataDir, saveAs string, logger *storage.Logger) *AttachmentHandler {
	return &AttachmentHandler{
		TargetSubject: subject,
		DataDir:       dataDir,
		SaveAs:        saveAs,
		logger:        logger,
		processedUIDs: make(map[uint32]bool),
	}
}

// isProcessed 检查邮件是否已处理过（线程安全）
func (h *AttachmentHandler) isProcessed(uid uint32) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.processedUIDs[uid]
}

// markAsProcessed 标记邮件为已处理（线程安全）
func (h *AttachmentHandler) markAsProcessed(uid uint32) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.processedUIDs[uid] = true
}

func (h *AttachmentHandler) info(msg string, args ...any) {
	if h.logger != nil {
		h.logger.Info(msg, args...)
	}
}

// Handle 处理单个邮件，返回保存的附件路径
func (h *AttachmentHandler) Handle(email *Email) ([]string, error) {
	if email == nil || h.isProcessed(email.UID) {
		return nil, nil
	}

	if !strings.Contains(email.Subject, h.TargetSubject) {
		h.info("跳过主题不匹配的邮件", "subject", email.Subject)
		return nil, nil
	}

	h.info("处理邮件", "subject", email.Subject, "from", email.From,
		"date", email.Date.Format("2006-01-02 15:04:05"))

	if err := os.MkdirAll(h.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("创建目录失败: %w", err)
	}

	var saved []string
	for _, attachment := range email.Attachments {
		if !isDataset(attachment.Filename) {
			continue
		}

		name := filepath.Base(attachment.Filename)
		if h.SaveAs != "" && len(saved) == 0 {
			name = h.SaveAs
		}
		filePath := filepath.Join(h.DataDir, name)

		if err := os.WriteFile(filePath, attachment.Content, 0644); err != nil {
			return saved, fmt.Errorf("保存附件失败: %w", err)
		}
		h.info("附件已保存", "attachment", attachment.Filename, "path", filePath)
		saved = append(saved, filePath)
	}

	if len(saved) > 0 {
		h.markAsProcessed(email.UID)
	}
	return saved, nil
}

func isDataset(filename string) bool {
	return utils.Contains(DatasetExtensions, strings.ToLower(filepath.Ext(filename)))
}
