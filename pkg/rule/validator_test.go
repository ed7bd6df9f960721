package rule_test

import (
	"testing"

	"github.com/yeisme/docvault/pkg/rule"
)

// tagForm 模拟标签提交表单.
type tagForm struct {
	Key   string `rule:"tag_key"`
	Value string `rule:"tag_value"`
}

// TestEngine 测试 Engine 函数返回非 nil 实例.
func TestEngine(t *testing.T) {
	if rule.Engine() == nil {
		t.Error("Engine() returned nil")
	}
}

// TestDocStatusRule 测试 doc_status 自定义规则.
func TestDocStatusRule(t *testing.T) {
	for _, s := range []string{"draft", "published", "archived"} {
		if err := rule.ValidateVar(s, "doc_status"); err != nil {
			t.Errorf("status %q should pass, got %v", s, err)
		}
	}

	if err := rule.ValidateVar("frozen", "doc_status"); err == nil {
		t.Error("unknown status should fail validation")
	}
}

// TestTagAliases 测试标签键值长度别名.
func TestTagAliases(t *testing.T) {
	valid := tagForm{Key: "project", Value: "alpha"}
	if err := rule.ValidateStruct(valid); err != nil {
		t.Errorf("expected no error for valid tag, got %v", err)
	}

	// 键超过 50 字符
	longKey := tagForm{Value: "v"}
	for range 51 {
		longKey.Key += "k"
	}

	if err := rule.ValidateStruct(longKey); err == nil {
		t.Error("expected error for over-long tag key")
	}

	// 值超过 100 字符
	longVal := tagForm{Key: "k"}
	for range 101 {
		longVal.Value += "v"
	}

	if err := rule.ValidateStruct(longVal); err == nil {
		t.Error("expected error for over-long tag value")
	}

	// 空键拒绝
	if err := rule.ValidateStruct(tagForm{Key: "", Value: "v"}); err == nil {
		t.Error("expected error for empty tag key")
	}

	// 值可空：仅有键的标签合法
	if err := rule.ValidateStruct(tagForm{Key: "urgent"}); err != nil {
		t.Errorf("key-only tag should pass, got %v", err)
	}
}

// TestValidateVar 测试 ValidateVar 对变量的验证.
func TestValidateVar(t *testing.T) {
	if err := rule.ValidateVar("test@example.com", "required,email"); err != nil {
		t.Errorf("expected no error for valid email, got %v", err)
	}

	if err := rule.ValidateVar("invalid-email", "required,email"); err == nil {
		t.Error("expected error for invalid email")
	}
}
