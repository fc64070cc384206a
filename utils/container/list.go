package container

import (
	"fmt"
	"log"
)

// ListNode 双向链表中的节点
// 功能：表示双向链表中的一个节点，键值S记录元素在路径上的进度
// 说明：支持泛型，可以存储任意类型的值
type ListNode[T any] struct {
	parent     *List[T]     // 所属链表
	prev, next *ListNode[T] // 前驱和后继节点
	S          float64      // 键值（沿路径的进度）
	Value      T            // 主要值
}

// String 获取节点的字符串表示
// 功能：将节点信息格式化为可读的字符串
// 返回：格式化的节点信息字符串
func (n *ListNode[T]) String() string {
	return fmt.Sprintf("Node{Key:%v, Value:%+v}", n.S, n.Value)
}

// Prev 获取节点的前一个节点
// 功能：返回链表中的前驱节点
// 返回：前驱节点指针，如果是第一个节点则返回nil
func (n *ListNode[T]) Prev() *ListNode[T] {
	return n.prev
}

// Next 获取节点的下一个节点
// 功能：返回链表中的后继节点
// 返回：后继节点指针，如果是最后一个节点则返回nil
func (n *ListNode[T]) Next() *ListNode[T] {
	return n.next
}

// Parent 获取节点所在的链表
// 功能：返回节点所属的链表对象
// 返回：链表指针，不在任何链表中时返回nil
func (n *ListNode[T]) Parent() *List[T] {
	return n.parent
}

// InsertBefore 在节点前插入新节点
// 功能：在当前节点之前插入一个新节点
// 参数：add-要插入的新节点
// 算法说明：
// 1. 检查新节点是否已经在其他链表中
// 2. 设置新节点的父链表和前后指针
// 3. 更新当前节点和前驱节点的指针
// 4. 如果新节点是第一个节点，更新链表头指针
// 5. 增加链表长度计数
func (n *ListNode[T]) InsertBefore(add *ListNode[T]) {
	if add.parent != nil {
		log.Panic("insert node who already in list")
	}
	add.parent = n.parent
	add.next = n
	add.prev = n.prev
	n.prev = add
	if add.prev != nil {
		add.prev.next = add
	} else {
		add.parent.head = add
	}
	n.parent.length++
}

// InsertAfter 在节点后插入新节点
// 功能：在当前节点之后插入一个新节点
// 参数：add-要插入的新节点
// 算法说明：
// 1. 检查新节点是否已经在其他链表中
// 2. 设置新节点的父链表和前后指针
// 3. 更新当前节点和后继节点的指针
// 4. 如果新节点是最后一个节点，更新链表尾指针
// 5. 增加链表长度计数
func (n *ListNode[T]) InsertAfter(add *ListNode[T]) {
	if add.parent != nil {
		log.Panic("insert node who already in list")
	}
	add.parent = n.parent
	add.prev = n
	add.next = n.next
	n.next = add
	if add.next != nil {
		add.next.prev = add
	} else {
		add.parent.tail = add
	}
	n.parent.length++
}

// List 双向链表
// 功能：实现一个通用的双向链表数据结构
// 说明：用于维护排队人员的有序序列，头节点为队首（下一个上车的人）
type List[T any] struct {
	ID         string       // 链表标识符
	head, tail *ListNode[T] // 头尾节点指针
	length     int          // 链表长度
}

// String 获取链表的字符串表示
// 功能：将链表信息格式化为可读的字符串
// 返回：格式化的链表信息字符串
func (l *List[T]) String() string {
	return fmt.Sprintf("List{ID:%v}", l.ID)
}

// Keys 获取双向链表中所有节点的键值
// 功能：返回链表中所有节点的键值数组
// 返回：键值数组
func (l *List[T]) Keys() []float64 {
	keys := make([]float64, l.length)
	for i, node := 0, l.head; node != nil; i, node = i+1, node.next {
		keys[i] = node.S
	}
	return keys
}

// Values 获取双向链表中所有节点的值
// 功能：返回链表中所有节点的值数组
// 返回：值数组，顺序与链表顺序一致
func (l *List[T]) Values() []T {
	values := make([]T, l.length)
	for i, node := 0, l.head; node != nil; i, node = i+1, node.next {
		values[i] = node.Value
	}
	return values
}

// Len 获取双向链表长度
// 功能：返回链表中的节点数量
// 返回：链表长度
func (l *List[T]) Len() int {
	return l.length
}

// PushFront 向链表头部插入节点
// 功能：在链表头部添加一个新节点
// 参数：add-要插入的新节点
// 算法说明：
// 1. 检查新节点是否已经在其他链表中
// 2. 如果链表为空，直接设置为头尾节点
// 3. 如果链表不为空，在头节点前插入新节点
// 4. 更新头节点指针
func (l *List[T]) PushFront(add *ListNode[T]) {
	if add.parent != nil {
		log.Panic("push front node who already in list")
	}
	add.next = nil
	add.prev = nil
	if l.head == nil {
		add.parent = l
		l.head = add
		l.tail = add
		l.length++
	} else {
		// length++和add.parent在InsertBefore中处理
		l.head.InsertBefore(add)
		l.head = add
	}
}

// PushBack 向链表尾部插入节点
// 功能：在链表尾部添加一个新节点
// 参数：add-要插入的新节点
// 算法说明：
// 1. 检查新节点是否已经在其他链表中
// 2. 如果链表为空，直接设置为头尾节点
// 3. 如果链表不为空，在尾节点后插入新节点
// 4. 更新尾节点指针
func (l *List[T]) PushBack(add *ListNode[T]) {
	if add.parent != nil {
		log.Panic("push back node who already in list")
	}
	add.next = nil
	add.prev = nil
	if l.tail == nil {
		add.parent = l
		l.head = add
		l.tail = add
		l.length++
	} else {
		// length++和add.parent在InsertAfter中处理
		l.tail.InsertAfter(add)
		l.tail = add
	}
}

// Remove 从链表中移除节点
// 功能：从链表中删除指定的节点
// 参数：node-要删除的节点
// 算法说明：
// 1. 检查节点是否属于当前链表
// 2. 更新前驱节点的后继指针与后继节点的前驱指针
// 3. 如果删除的是头/尾节点，更新头/尾指针
// 4. 清空被删除节点的指针并减少链表长度计数
func (l *List[T]) Remove(node *ListNode[T]) {
	if node.parent != l {
		log.Panic("remove node from wrong list")
	}
	if node.prev != nil {
		node.prev.next = node.next
	} else {
		l.head = node.next
	}
	if node.next != nil {
		node.next.prev = node.prev
	} else {
		l.tail = node.prev
	}
	node.prev = nil
	node.next = nil
	node.parent = nil
	l.length--
}

// Contains 检查节点是否属于本链表
// 功能：判断给定节点当前是否挂在本链表上
// 返回：true表示节点在本链表中
func (l *List[T]) Contains(node *ListNode[T]) bool {
	return node != nil && node.parent == l
}

// First 获取链表头部节点
// 功能：返回链表的第一个节点
// 返回：头节点指针，如果链表为空则返回nil
func (l *List[T]) First() *ListNode[T] {
	return l.head
}

// Last 获取链表尾部节点
// 功能：返回链表的最后一个节点
// 返回：尾节点指针，如果链表为空则返回nil
func (l *List[T]) Last() *ListNode[T] {
	return l.tail
}

// At 获取链表中第i个节点
// 功能：从头节点开始计数，返回第i个节点（0为头节点）
// 返回：第i个节点指针，越界时返回nil
// 说明：O(n)遍历，目标队列长度下可接受
func (l *List[T]) At(i int) *ListNode[T] {
	if i < 0 || i >= l.length {
		return nil
	}
	node := l.head
	for ; i > 0; i-- {
		node = node.next
	}
	return node
}
