package config

import "fmt"

// CacheKeyStruct centralizes every Redis key format the application uses.
// All key construction goes through these helpers so a key change cannot
// drift between writers and readers.
type CacheKeyStruct struct{}

// StudentSessionKey returns the key holding a student's active login JTI.
func (r *CacheKeyStruct) StudentSessionKey(studentID int) string {
	return fmt.Sprintf("login:student:%d", studentID)
}

// SessionStartKey returns the key caching a student's exam start time.
func (r *CacheKeyStruct) SessionStartKey(examID string, studentID int) string {
	return fmt.Sprintf("student:%d:exam:%s:session_start", studentID, examID)
}

// DraftAnswersKey returns the key holding a student's autosaved draft
// answers for an exam (a Redis hash of field name to draft value).
func (r *CacheKeyStruct) DraftAnswersKey(examID string, studentID int) string {
	return fmt.Sprintf("student:%d:exam:%s:drafts", studentID, examID)
}

// TabSwitchKey returns the key counting a student's tab switches during
// an exam attempt.
func (r *CacheKeyStruct) TabSwitchKey(examID string, studentID int) string {
	return fmt.Sprintf("student:%d:exam:%s:tab_switches", studentID, examID)
}

// ExamPaperKey returns the key caching the published exam paper payload.
func (r *CacheKeyStruct) ExamPaperKey(examID string) string {
	return fmt.Sprintf("exam:%s:paper", examID)
}

// ExamDurationKey returns the key caching the exam duration in minutes.
func (r *CacheKeyStruct) ExamDurationKey(examID string) string {
	return fmt.Sprintf("exam:%s:duration", examID)
}

// ExamMonitorChannel returns the Pub/Sub channel carrying live proctoring
// events (join, tab switch, submit) for an exam.
func (r *CacheKeyStruct) ExamMonitorChannel(examID string) string {
	return fmt.Sprintf("exam:%s:monitor", examID)
}

// CacheKey is the shared key builder instance.
var CacheKey = &CacheKeyStruct{}
