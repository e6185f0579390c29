package mailer

import (
	"bytes"
	"fmt"
	"net/smtp"
	"text/template"
	"time"

	"sicet/backend/config"
)

// Mailer 邮件发送接口。
// Service 层只依赖该接口，便于测试时替换为假实现。
type Mailer interface {
	// SendOverdueNotice 发送清单逾期通知
	SendOverdueNotice(n *OverdueNotice) error
	// SendAlertNotice 发送 KPI 取值告警通知
	SendAlertNotice(n *AlertNotice) error
}

// OverdueNotice 逾期通知内容
type OverdueNotice struct {
	DeviceName         string
	DeviceLocation     string
	ScheduledExecution time.Time
	SlotLabel          string
	RecipientEmail     string
	Tasks              []string // 未完成任务对应的 KPI 名称
}

// TriggeredReason 告警触发原因（展示用）
type TriggeredReason struct {
	FieldName  string
	FieldValue string
	Detail     string
}

// AlertNotice KPI 告警通知内容
type AlertNotice struct {
	KpiName        string
	KpiDescription string
	DeviceName     string
	DeviceLocation string
	TriggeredValue string
	RecipientEmail string
	Reasons        []TriggeredReason
}

// smtpMailer 基于 net/smtp 的实现
type smtpMailer struct {
	cfg *config.MailConfig
}

// NewSMTPMailer 创建 SMTP 邮件发送器
func NewSMTPMailer(cfg *config.MailConfig) Mailer {
	return &smtpMailer{cfg: cfg}
}

var overdueTmpl = template.Must(template.New("overdue").Parse(`Ispezione scaduta
=================

Punto di controllo: {{.DeviceName}} ({{.DeviceLocation}})
Data prevista: {{.ScheduledExecution.Format "2006-01-02"}}
Fascia oraria: {{.SlotLabel}}

Attività non completate:
{{range .Tasks}}  - {{.}}
{{end}}`))

var alertTmpl = template.Must(template.New("alert").Parse(`Allarme valore fuori soglia
===========================

Controllo: {{.KpiName}}{{if .KpiDescription}} — {{.KpiDescription}}{{end}}
Punto di controllo: {{.DeviceName}} ({{.DeviceLocation}})
Valore registrato: {{.TriggeredValue}}

Condizioni attivate:
{{range .Reasons}}  - {{.FieldName}} = {{.FieldValue}} ({{.Detail}})
{{end}}`))

func (m *smtpMailer) SendOverdueNotice(n *OverdueNotice) error {
	subject := fmt.Sprintf("[SICET] Ispezione scaduta - %s", n.DeviceName)

	var body bytes.Buffer
	if err := overdueTmpl.Execute(&body, n); err != nil {
		return fmt.Errorf("渲染逾期通知模板失败: %w", err)
	}

	return m.send(n.RecipientEmail, subject, body.String())
}

func (m *smtpMailer) SendAlertNotice(n *AlertNotice) error {
	subject := fmt.Sprintf("[SICET] Allarme %s - %s", n.KpiName, n.DeviceName)

	var body bytes.Buffer
	if err := alertTmpl.Execute(&body, n); err != nil {
		return fmt.Errorf("渲染告警通知模板失败: %w", err)
	}

	return m.send(n.RecipientEmail, subject, body.String())
}

// send 组装 RFC 5322 消息并通过 SMTP 发送
func (m *smtpMailer) send(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s",
		m.cfg.From, to, subject, body)

	addr := fmt.Sprintf("%s:%d", m.cfg.SMTPHost, m.cfg.SMTPPort)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.SMTPHost)
	}

	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("发送邮件失败: %w", err)
	}
	return nil
}
