// Package errors 定义跨层共享的业务错误。
// 各模块自己的哨兵错误留在各自包内，这里只放真正横切的。
package errors

import "errors"

// ErrOptimisticLock 并发更新冲突：目标行的 version 已被其他事务推进
var ErrOptimisticLock = errors.New("记录已被其他操作修改，请刷新后重试")
