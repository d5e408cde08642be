package browser

// JavaScript evaluated in the active page. Each snippet is a function expression so rod can
// pass arguments to it; element snippets run with `this` bound to the element.
const (
	scrollStateJS = `() => ({
		x: Math.round(window.scrollX),
		y: Math.round(window.scrollY),
		scrollWidth: document.documentElement.scrollWidth,
		scrollHeight: document.documentElement.scrollHeight,
		viewportWidth: window.innerWidth,
		viewportHeight: window.innerHeight,
	})`

	scrollByJS = `(dx, dy, smooth) => window.scrollBy({left: dx, top: dy, behavior: smooth ? 'smooth' : 'auto'})`

	scrollToJS = `(x, y, smooth) => window.scrollTo({left: x, top: y, behavior: smooth ? 'smooth' : 'auto'})`

	queryTextJS = `(text) => {
		const needle = text.toLowerCase();
		return Array.from(document.querySelectorAll('body *'))
			.filter(el => (el.textContent || '').toLowerCase().includes(needle));
	}`

	lastModifiedJS = `() => document.lastModified`

	historyLengthJS = `() => window.history.length`

	// The indicator is a fixed badge in the top-right corner, removed by clearIndicatorsJS.
	showIndicatorJS = `(text) => {
		const el = document.createElement('div');
		el.className = 'jarvis-scroll-indicator';
		el.textContent = text;
		el.style.cssText = 'position:fixed;top:20px;right:20px;z-index:2147483647;' +
			'background:rgba(0,212,255,0.9);color:#000;padding:8px 16px;border-radius:20px;' +
			'font:bold 14px sans-serif;box-shadow:0 4px 12px rgba(0,212,255,0.3);';
		document.body.appendChild(el);
	}`

	clearIndicatorsJS = `() => document.querySelectorAll('.jarvis-scroll-indicator').forEach(el => el.remove())`

	requestFullscreenJS = `() => {
		const root = document.documentElement;
		if (!root.requestFullscreen) return false;
		return root.requestFullscreen().then(() => true, () => false);
	}`

	exitFullscreenJS = `() => {
		if (!document.fullscreenElement || !document.exitFullscreen) return false;
		return document.exitFullscreen().then(() => true, () => false);
	}`

	zoomJS = `(level) => { document.body.style.zoom = String(level); }`

	mediaJS = `(action, volume) => {
		const media = Array.from(document.querySelectorAll('video, audio'));
		media.forEach(m => {
			switch (action) {
			case 'play': m.play().catch(() => {}); break;
			case 'pause': m.pause(); break;
			case 'stop': m.pause(); m.currentTime = 0; break;
			case 'volume': m.volume = volume; break;
			}
		});
		return media.length;
	}`

	textContentJS = `() => this.textContent || ''`

	rectJS = `() => {
		const r = this.getBoundingClientRect();
		return {top: r.top, bottom: r.bottom, left: r.left, right: r.right, height: r.height, width: r.width};
	}`

	scrollIntoViewJS = `(block) => this.scrollIntoView({behavior: 'smooth', block: block || 'start'})`

	styleJS = `() => this.style.cssText`

	setStyleJS = `(css) => { this.style.cssText = css; }`
)
