package probe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"syscall"

	"golang.org/x/sys/unix"
)

const (
	traceSupported = true

	devNull     = "/dev/null"
	maxPathPeek = 4096
)

func trace(ctx context.Context, ffmpeg, path string) (uint64, error) {
	// every ptrace request must come from the thread that started the tracee
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	args := remuxArgs(path, devNull, "matroska")
	cmd := exec.CommandContext(ctx, ffmpeg, args...)
	// the tracee leads its own process group, so the loop below can wait on
	// its threads without reaping children of other goroutines
	cmd.SysProcAttr = &syscall.SysProcAttr{Ptrace: true, Setpgid: true}

	if err := cmd.Start(); err != nil {
		return 0, err
	}
	// the tracee is reaped below, so Wait only releases the process handle
	defer cmd.Wait()

	pid := cmd.Process.Pid

	var ws unix.WaitStatus
	if _, err := unix.Wait4(pid, &ws, unix.WALL, nil); err != nil {
		return 0, err
	}
	if !ws.Stopped() {
		return 0, fmt.Errorf("tracee did not stop after exec: %v", ws)
	}

	opts := unix.PTRACE_O_TRACESYSGOOD | unix.PTRACE_O_TRACECLONE | unix.PTRACE_O_TRACEEXEC | unix.PTRACE_O_EXITKILL
	if err := unix.PtraceSetOptions(pid, opts); err != nil {
		return 0, err
	}
	if err := unix.PtraceSyscall(pid, 0); err != nil {
		return 0, err
	}

	t := newTracker(path, devNull)
	inSyscall := map[int]bool{}

	for {
		wpid, err := unix.Wait4(-pid, &ws, unix.WALL, nil)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			return 0, err
		}

		if ws.Exited() || ws.Signaled() {
			delete(inSyscall, wpid)
			if wpid == pid {
				break
			}
			continue
		}
		if !ws.Stopped() {
			continue
		}

		var sig int
		switch stop := ws.StopSignal(); {
		case stop == syscall.SIGTRAP|0x80:
			inSyscall[wpid] = !inSyscall[wpid]
			if !inSyscall[wpid] {
				handleSyscallExit(wpid, t)
			}
		case stop == syscall.SIGTRAP && ws.TrapCause() != 0:
			// clone or exec event, new threads are traced automatically
		case stop == syscall.SIGSTOP:
			// initial stop of a new thread
		default:
			sig = int(stop)
		}

		if err := unix.PtraceSyscall(wpid, sig); err != nil && !errors.Is(err, unix.ESRCH) {
			return 0, err
		}
	}

	if ws.Signaled() && ctx.Err() != nil {
		return 0, ctx.Err()
	}
	return t.maxPos, nil
}

func handleSyscallExit(pid int, t *tracker) {
	var regs unix.PtraceRegs
	if err := unix.PtraceGetRegs(pid, &regs); err != nil {
		return
	}

	ret := int64(regs.Rax)
	switch regs.Orig_rax {
	case unix.SYS_OPEN:
		t.open(peekString(pid, uintptr(regs.Rdi)), ret)
	case unix.SYS_OPENAT:
		t.open(peekString(pid, uintptr(regs.Rsi)), ret)
	case unix.SYS_CLOSE:
		t.close(int64(regs.Rdi), ret)
	case unix.SYS_LSEEK:
		t.seek(int64(regs.Rdi), ret)
	case unix.SYS_READ:
		t.read(int64(regs.Rdi), ret)
	case unix.SYS_WRITE:
		t.write(int64(regs.Rdi), ret)
	}
}

func peekString(pid int, addr uintptr) string {
	var (
		out   []byte
		chunk [64]byte
	)
	for len(out) < maxPathPeek {
		n, err := unix.PtracePeekData(pid, addr+uintptr(len(out)), chunk[:])
		if n == 0 || err != nil {
			break
		}
		if i := bytes.IndexByte(chunk[:n], 0); i >= 0 {
			return string(append(out, chunk[:i]...))
		}
		out = append(out, chunk[:n]...)
	}
	return string(out)
}
