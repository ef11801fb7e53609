package logschema

import (
	"fmt"
	"sort"
	"strings"
)

// Schema 定义每个日志事件所需的关键字段，便于集中校验。
type Schema struct {
	Event    string
	Required []string
}

var schemas = map[string]Schema{
	"order_submit": {
		Event:    "order_submit",
		Required: []string{"symbol", "side", "type", "amount", "price"},
	},
	"order_confirmed": {
		Event:    "order_confirmed",
		Required: []string{"symbol", "txHash", "blockNumber"},
	},
	"order_cancel": {
		Event:    "order_cancel",
		Required: []string{"orderId", "txHash"},
	},
	"approval_sent": {
		Event:    "approval_sent",
		Required: []string{"asset", "spender", "amount"},
	},
	"submit_failed": {
		Event:    "submit_failed",
		Required: []string{"code", "reason"},
	},
	"market_snapshot": {
		Event:    "market_snapshot",
		Required: []string{"symbol", "bid", "ask"},
	},
}

// Known 返回所有事件名，便于外部生成文档。
func Known() []string {
	names := make([]string, 0, len(schemas))
	for k := range schemas {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Validate 检查日志字段是否包含 schema 中要求的 key。
func Validate(event string, fields map[string]interface{}) error {
	s, ok := schemas[event]
	if !ok {
		return nil
	}
	var missing []string
	for _, key := range s.Required {
		if _, exists := fields[key]; !exists {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing fields: %s", strings.Join(missing, ","))
	}
	return nil
}
