// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build darwin

package metal

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
	"github.com/ebitengine/purego/objc"
)

const (
	metalFramework      = "/System/Library/Frameworks/Metal.framework/Metal"
	foundationFramework = "/System/Library/Frameworks/Foundation.framework/Foundation"
)

// MTLResourceStorageModeShared: CPU and GPU share the allocation.
const resourceStorageModeShared = 0

// MTLCommandBufferStatusError.
const commandBufferStatusError = 5

// mtlSize mirrors MTLSize.
type mtlSize struct {
	Width, Height, Depth uint
}

var (
	loadOnce sync.Once
	loadErr  error

	mtlCreateSystemDefaultDevice func() objc.ID

	classNSString          objc.Class
	classNSURL             objc.Class
	classNSAutoreleasePool objc.Class
)

// Selectors.
var (
	selAlloc    = objc.RegisterName("alloc")
	selInit     = objc.RegisterName("init")
	selRelease  = objc.RegisterName("release")
	selRetain   = objc.RegisterName("retain")
	selDrain    = objc.RegisterName("drain")
	selCount    = objc.RegisterName("count")
	selObjectAt = objc.RegisterName("objectAtIndex:")

	selStringWithUTF8 = objc.RegisterName("stringWithUTF8String:")
	selUTF8String     = objc.RegisterName("UTF8String")
	selFileURLPath    = objc.RegisterName("fileURLWithPath:")

	selDomain            = objc.RegisterName("domain")
	selCode              = objc.RegisterName("code")
	selLocalizedDesc     = objc.RegisterName("localizedDescription")
	selLocalizedRecovery = objc.RegisterName("localizedRecoverySuggestion")
	selLocalizedFailure  = objc.RegisterName("localizedFailureReason")

	selName                  = objc.RegisterName("name")
	selNewLibraryWithSource  = objc.RegisterName("newLibraryWithSource:options:error:")
	selNewLibraryWithURL     = objc.RegisterName("newLibraryWithURL:error:")
	selFunctionNames         = objc.RegisterName("functionNames")
	selNewFunctionWithName   = objc.RegisterName("newFunctionWithName:")
	selNewComputePipeline    = objc.RegisterName("newComputePipelineStateWithFunction:error:")
	selMaxTotalThreads       = objc.RegisterName("maxTotalThreadsPerThreadgroup")
	selNewBufferWithLength   = objc.RegisterName("newBufferWithLength:options:")
	selContents              = objc.RegisterName("contents")
	selNewCommandQueue       = objc.RegisterName("newCommandQueue")
	selCommandBuffer         = objc.RegisterName("commandBuffer")
	selComputeCommandEncoder = objc.RegisterName("computeCommandEncoder")
	selSetComputePipeline    = objc.RegisterName("setComputePipelineState:")
	selSetBuffer             = objc.RegisterName("setBuffer:offset:atIndex:")
	selDispatchThreads       = objc.RegisterName("dispatchThreads:threadsPerThreadgroup:")
	selEndEncoding           = objc.RegisterName("endEncoding")
	selCommit                = objc.RegisterName("commit")
	selWaitUntilCompleted    = objc.RegisterName("waitUntilCompleted")
	selStatus                = objc.RegisterName("status")
	selError                 = objc.RegisterName("error")
	selSetLabel              = objc.RegisterName("setLabel:")
)

// load opens the Metal and Foundation frameworks once.
func load() error {
	loadOnce.Do(func() {
		if _, err := purego.Dlopen(foundationFramework, purego.RTLD_LAZY|purego.RTLD_GLOBAL); err != nil {
			loadErr = fmt.Errorf("load Foundation: %w", err)
			return
		}
		lib, err := purego.Dlopen(metalFramework, purego.RTLD_LAZY|purego.RTLD_GLOBAL)
		if err != nil {
			loadErr = fmt.Errorf("load Metal: %w", err)
			return
		}
		purego.RegisterLibFunc(&mtlCreateSystemDefaultDevice, lib, "MTLCreateSystemDefaultDevice")
		classNSString = objc.GetClass("NSString")
		classNSURL = objc.GetClass("NSURL")
		classNSAutoreleasePool = objc.GetClass("NSAutoreleasePool")
	})
	return loadErr
}

// autoreleasePool runs fn inside an NSAutoreleasePool.
func autoreleasePool(fn func()) {
	pool := objc.ID(classNSAutoreleasePool).Send(selAlloc).Send(selInit)
	defer pool.Send(selDrain)
	fn()
}

// nsString returns an autoreleased NSString holding s.
func nsString(s string) objc.ID {
	b := append([]byte(s), 0)
	return objc.ID(classNSString).Send(selStringWithUTF8, unsafe.Pointer(&b[0]))
}

// goString copies an NSString into Go memory. nil yields "".
func goString(str objc.ID) string {
	if str == 0 {
		return ""
	}
	p := objc.Send[unsafe.Pointer](str, selUTF8String)
	if p == nil {
		return ""
	}
	n := 0
	for *(*byte)(unsafe.Add(p, n)) != 0 {
		n++
	}
	return string(unsafe.Slice((*byte)(p), n))
}

func release(id objc.ID) {
	if id != 0 {
		id.Send(selRelease)
	}
}
