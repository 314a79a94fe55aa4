package main

import (
	"flag"
	"log"
	"syscall"
)

// 向运行中的服务发送 SIGHUP，使其在日志切割后重新打开日志文件
func main() {
	pid := flag.Int("pid", 0, "服务进程号")
	flag.Parse()

	if *pid <= 0 {
		log.Fatal("usage: reopen -pid <pid>")
	}
	if err := syscall.Kill(*pid, syscall.SIGHUP); err != nil {
		log.Fatal("Failed to send SIGHUP:", err)
	}
}
