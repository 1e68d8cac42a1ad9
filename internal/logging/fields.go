package logging

import "github.com/sirupsen/logrus"

// BaseFields 构建 action + 配置路径等基础字段，便于不同入口复用。
func BaseFields(action, configPath string) logrus.Fields {
	return logrus.Fields{
		"action":     action,
		"configPath": configPath,
	}
}

// RequestFields 提供模块请求日志的公共字段，供路由与打包流程复用。
func RequestFields(action, requestKey, requestID string) logrus.Fields {
	fields := logrus.Fields{
		"action":      action,
		"request_key": requestKey,
	}
	if requestID != "" {
		fields["request_id"] = requestID
	}
	return fields
}
