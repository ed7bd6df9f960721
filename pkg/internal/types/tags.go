package types

// TagInput 标签键值对输入.
type TagInput struct {
	Key   string `json:"key"   rule:"tag_key"`            // 标签键，最长 50
	Value string `json:"value" rule:"tag_value"`          // 标签值，可空，最长 100
	Color string `json:"color" rule:"omitempty,hexcolor"` // 可选颜色，缺省 #6B7280
}

// AttachTagsRequest 为文档附加标签（get-or-create 语义）.
type AttachTagsRequest struct {
	Tags []TagInput `json:"tags" rule:"required,min=1,dive"`
}

// TagResponse 标签详情.
type TagResponse struct {
	ID          string `json:"id"`
	Key         string `json:"key"`
	Value       string `json:"value"`
	Color       string `json:"color"`
	DisplayName string `json:"display_name"`
}

// SuggestTagsRequest 标签建议查询参数.
type SuggestTagsRequest struct {
	Query string `form:"q"   rule:"omitempty,max=100"` // 按键或值前缀匹配
	Key   string `form:"key" rule:"omitempty,max=50"`  // 限定标签键
}

// SuggestTagsResponse 标签建议响应，最多返回 20 条.
type SuggestTagsResponse struct {
	Tags []TagResponse `json:"tags"`
}
