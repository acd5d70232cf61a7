package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/lixiang/orderdesk/internal/application/auth"
	"github.com/lixiang/orderdesk/internal/application/orderedit"
	"github.com/lixiang/orderdesk/internal/application/orderlist"
	"github.com/lixiang/orderdesk/internal/infrastructure/config"
	"github.com/lixiang/orderdesk/internal/infrastructure/credential"
	"github.com/lixiang/orderdesk/internal/infrastructure/transport"
	"github.com/lixiang/orderdesk/internal/logging"
	"github.com/lixiang/orderdesk/pkg/metrics"
)

// main 订单终端入口
// 说明：手动依赖注入（wire.go提供编译期生成的替代方案）
func main() {
	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	// 2. 初始化日志和指标
	logger := logging.NewLogger(cfg.Log.Level, cfg.Log.Output)
	metrics.InitMetrics()

	// 3. 凭证存储（file：本机单终端；redis：多终端共享会话）
	creds, err := newCredentialStore(cfg)
	if err != nil {
		log.Fatalf("初始化凭证存储失败: %v", err)
	}

	// 4. 依赖注入（手动组装）
	// Store ← Gateway ← UseCase/Controller ← 交互循环
	gateway := transport.NewGateway(
		cfg.API.BaseURL,
		cfg.API.Timeout,
		creds,
		logger,
		transport.WithAuthExpiredHook(func() {
			fmt.Println("\n⚠ 登录已过期，请重新登录（login 用户名 密码）")
		}),
	)

	app := &app{
		login:       auth.NewLoginUseCase(gateway, creds),
		currentUser: auth.NewCurrentUserUseCase(gateway, creds),
		logout:      auth.NewLogoutUseCase(creds),
		list:        orderlist.NewController(orderlist.NewFetcher(gateway), logger),
		gateway:     gateway,
	}

	fmt.Printf("✓ 订单终端已就绪（服务地址: %s）\n", cfg.API.BaseURL)

	// 5. 尝试恢复上次会话
	app.restoreSession(context.Background())

	// 6. 进入交互循环
	app.run()
}

// newCredentialStore 按配置选择凭证存储实现
func newCredentialStore(cfg *config.Config) (credential.Store, error) {
	if cfg.Credential.Store == "redis" {
		client, err := credential.NewClient(cfg)
		if err != nil {
			return nil, err
		}
		return credential.NewRedisStore(client, ""), nil
	}
	return credential.NewFileStore(cfg.Credential.Path)
}

// app 交互循环持有的全部依赖
type app struct {
	login       *auth.LoginUseCase
	currentUser *auth.CurrentUserUseCase
	logout      *auth.LogoutUseCase
	list        *orderlist.Controller
	gateway     *transport.Gateway

	user *auth.User
}

// restoreSession 启动时用存储的凭证恢复会话
func (a *app) restoreSession(ctx context.Context) {
	user, err := a.currentUser.Execute(ctx)
	if err != nil || user == nil {
		fmt.Println("  未登录，输入 login 用户名 密码 登录")
		return
	}
	a.user = user
	fmt.Printf("  已恢复会话: %s (%s)\n", user.Username, user.Role)
}

func (a *app) run() {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("  输入 help 查看命令")

	for {
		fmt.Print("orderdesk> ")
		if !scanner.Scan() {
			return
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		ctx := context.Background()
		cmd, args := fields[0], fields[1:]

		switch cmd {
		case "help":
			printHelp()
		case "exit", "quit":
			return
		case "login":
			a.doLogin(ctx, args)
		case "logout":
			a.doLogout(ctx)
		case "whoami":
			a.doWhoami()
		case "list":
			a.doFetch(ctx)
		case "search":
			a.list.SetSearchTerm(strings.Join(args, " "))
			a.doFetch(ctx)
		case "type":
			a.doSetType(ctx, args)
		case "date":
			a.doSetDate(ctx, args)
		case "range":
			a.doSetRange(ctx, args)
		case "nodate":
			a.list.SetDateFilter(orderlist.DateFilter{Kind: orderlist.DateNone})
			a.doFetch(ctx)
		case "page":
			a.doSetPage(ctx, args)
		case "next":
			a.list.SetPage(a.list.State().Page + 1)
			a.doFetch(ctx)
		case "prev":
			a.list.SetPage(a.list.State().Page - 1)
			a.doFetch(ctx)
		case "perpage":
			a.doSetPerPage(ctx, args)
		case "clear":
			a.list.ClearAllFilters()
			a.doFetch(ctx)
		case "edit":
			a.doEdit(ctx, scanner, args)
		default:
			fmt.Printf("未知命令: %s（输入 help 查看命令）\n", cmd)
		}
	}
}

func printHelp() {
	fmt.Print(`命令：
  login 用户名 密码       登录
  logout                  登出
  whoami                  当前用户
  list                    按当前筛选条件拉取订单列表
  search 关键词           设置搜索词并拉取（空关键词=清除搜索）
  type order|book|author  设置搜索维度（订单号/书名/作者姓氏）
  date YYYY-MM-DD         按单日筛选
  range 开始日 结束日     按日期区间筛选
  nodate                  清除日期筛选
  page N / next / prev    翻页
  perpage 5|10|25|50|100  每页条数
  clear                   清除全部筛选
  edit 订单号             进入订单编辑
  exit                    退出
`)
}

func (a *app) doLogin(ctx context.Context, args []string) {
	if len(args) != 2 {
		fmt.Println("用法: login 用户名 密码")
		return
	}

	user, err := a.login.Execute(ctx, args[0], args[1])
	if err != nil {
		fmt.Printf("登录失败: %v\n", err)
		return
	}

	a.user = user
	fmt.Printf("✓ 登录成功: %s (%s)\n", user.Username, user.Role)
}

func (a *app) doLogout(ctx context.Context) {
	if err := a.logout.Execute(ctx); err != nil {
		fmt.Printf("登出失败: %v\n", err)
		return
	}
	a.user = nil
	fmt.Println("✓ 已登出")
}

func (a *app) doWhoami() {
	if a.user == nil {
		fmt.Println("未登录")
		return
	}
	fmt.Printf("%s <%s> 角色: %s\n", a.user.Username, a.user.Email, a.user.Role)
}

// doFetch 拉取并渲染当前页
// 结果被丢弃（adopted=false）说明拉取期间筛选又变了，静默跳过
func (a *app) doFetch(ctx context.Context) {
	result, adopted, err := a.list.Fetch(ctx)
	if err != nil {
		fmt.Printf("查询失败: %v\n", err)
		return
	}
	if !adopted {
		return
	}

	state := a.list.State()
	fmt.Printf("共 %d 单，第 %d/%d 页（每页 %d）\n",
		result.Count, state.Page, result.TotalPages, state.PerPage)
	for _, row := range result.Rows {
		date := row.SaleDate
		if date == "" {
			date = "（无日期）"
		}
		fmt.Printf("  %-10s %s  %2d件  合计 %s\n",
			row.OrderID, date, row.ItemCount(), row.TotalPrice.StringFixed(2))
	}
	if len(result.Rows) == 0 {
		fmt.Println("  （没有匹配的订单）")
	}
}

func (a *app) doSetType(ctx context.Context, args []string) {
	if len(args) != 1 {
		fmt.Println("用法: type order|book|author")
		return
	}
	switch args[0] {
	case "order":
		a.list.SetSearchType(orderlist.SearchByOrder)
	case "book":
		a.list.SetSearchType(orderlist.SearchByBook)
	case "author":
		a.list.SetSearchType(orderlist.SearchByAuthor)
	default:
		fmt.Println("用法: type order|book|author")
		return
	}
	a.doFetch(ctx)
}

func (a *app) doSetDate(ctx context.Context, args []string) {
	if len(args) != 1 {
		fmt.Println("用法: date YYYY-MM-DD")
		return
	}
	a.list.SetDateFilter(orderlist.DateFilter{Kind: orderlist.DateSingle, Single: args[0]})
	a.doFetch(ctx)
}

func (a *app) doSetRange(ctx context.Context, args []string) {
	if len(args) != 2 {
		fmt.Println("用法: range 开始日 结束日")
		return
	}
	a.list.SetDateFilter(orderlist.DateFilter{Kind: orderlist.DateRange, Start: args[0], End: args[1]})
	a.doFetch(ctx)
}

func (a *app) doSetPage(ctx context.Context, args []string) {
	if len(args) != 1 {
		fmt.Println("用法: page N")
		return
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Println("用法: page N")
		return
	}
	a.list.SetPage(n)
	a.doFetch(ctx)
}

func (a *app) doSetPerPage(ctx context.Context, args []string) {
	if len(args) != 1 {
		fmt.Println("用法: perpage 5|10|25|50|100")
		return
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || !orderlist.ValidPerPage(n) {
		fmt.Println("每页条数只能是 5/10/25/50/100")
		return
	}
	a.list.SetPerPage(n)
	a.doFetch(ctx)
}

// doEdit 订单编辑子循环
// 保存成功后给列表打刷新标记，返回时自动重新拉取
func (a *app) doEdit(ctx context.Context, scanner *bufio.Scanner, args []string) {
	if len(args) != 1 {
		fmt.Println("用法: edit 订单号")
		return
	}

	session := orderedit.NewSession(a.gateway, args[0])
	if err := session.Load(ctx); err != nil {
		fmt.Printf("加载订单失败: %v\n", err)
		return
	}

	printSession(session)
	fmt.Println("编辑命令: qty 明细号 数量 | rm 明细号 | total | save | back")

	for {
		fmt.Printf("edit:%s> ", session.OrderID())
		if !scanner.Scan() {
			return
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "back":
			return
		case "show":
			printSession(session)
		case "total":
			fmt.Printf("合计 %s\n", session.OrderTotal().StringFixed(2))
		case "qty":
			a.doChangeQty(session, fields[1:])
		case "rm":
			a.doRemove(scanner, session, fields[1:])
		case "save":
			if a.doSave(ctx, session) {
				return
			}
		default:
			fmt.Println("编辑命令: qty 明细号 数量 | rm 明细号 | total | save | back")
		}
	}
}

func printSession(session *orderedit.Session) {
	items := session.Items()
	if len(items) == 0 {
		fmt.Println("  （所有明细已删除，保存将删除整个订单）")
		return
	}
	for _, li := range items {
		fmt.Printf("  [%s] %s / %s  单价 %s × %d\n",
			li.ItemID, li.Title(), li.AuthorName(), li.Price.StringFixed(2), li.Quantity)
	}
	fmt.Printf("  合计 %s\n", session.OrderTotal().StringFixed(2))
}

func (a *app) doChangeQty(session *orderedit.Session, args []string) {
	if len(args) != 2 {
		fmt.Println("用法: qty 明细号 数量")
		return
	}
	n, err := strconv.Atoi(args[1])
	if err != nil || n < 1 {
		fmt.Println("数量必须是不小于1的整数")
		return
	}
	session.ChangeQuantity(args[0], n)
	printSession(session)
}

// doRemove 两段确认删除：先请求，再就地确认
func (a *app) doRemove(scanner *bufio.Scanner, session *orderedit.Session, args []string) {
	if len(args) != 1 {
		fmt.Println("用法: rm 明细号")
		return
	}

	session.RequestRemoval(args[0])
	if session.PendingRemoval() == "" {
		fmt.Println("没有这条明细")
		return
	}

	fmt.Printf("确认删除明细 %s？(y/n) ", args[0])
	if !scanner.Scan() {
		session.CancelRemoval()
		return
	}

	if strings.TrimSpace(scanner.Text()) == "y" {
		session.ConfirmRemoval(args[0])
		printSession(session)
	} else {
		session.CancelRemoval()
		fmt.Println("已取消")
	}
}

// doSave 保存；返回true表示应退出编辑返回列表
func (a *app) doSave(ctx context.Context, session *orderedit.Session) bool {
	outcome, err := session.Save(ctx)
	if err != nil {
		fmt.Printf("保存失败: %s\n", session.FailureMessage())
		return false
	}

	switch outcome {
	case orderedit.SaveDeleted:
		fmt.Println("✓ 订单已删除")
	default:
		fmt.Println("✓ 订单已保存")
	}

	a.list.SignalRefresh()
	if a.list.ConsumeRefreshSignal() {
		a.doFetch(ctx)
	}
	return true
}
